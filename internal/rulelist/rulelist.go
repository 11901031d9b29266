// Package rulelist contains helpers for working with the text of
// filtering-rule lists: header-comment metadata and rule counting.
//
// Parsing and matching of the rules themselves is out of the scope of this
// module and is left to the filtering engine of the host application.
package rulelist

import (
	"bufio"
	"strings"
	"time"
)

// Header is the metadata parsed from the leading "! Key: value" comments of a
// filtering-rule list.
type Header struct {
	// TimeUpdated is the value of the "Last modified" or "TimeUpdated"
	// field.  It is zero if the field is absent or malformed.
	TimeUpdated time.Time

	// Title is the value of the "Title" field.
	Title string

	// Description is the value of the "Description" field.
	Description string

	// Version is the value of the "Version" field.
	Version string

	// Homepage is the value of the "Homepage" field.
	Homepage string

	// Expires is the update period from the "Expires" field.  It is zero if
	// the field is absent or malformed.
	Expires time.Duration
}

// commentPrefix is the prefix of the comment lines of a rule list.
const commentPrefix = "!"

// timeUpdatedLayouts are the layouts used by the known list maintainers for
// the "Last modified" field.
var timeUpdatedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"02 Jan 2006 15:04 MST",
}

// ParseHeader scans the leading comment lines of text and returns the
// metadata found in them.  Scanning stops at the first line that is neither
// empty nor a comment.  h is never nil.
func ParseHeader(text string) (h *Header) {
	h = &Header{}

	s := bufio.NewScanner(strings.NewReader(text))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, commentPrefix) {
			break
		}

		key, val, ok := strings.Cut(strings.TrimLeft(line, "! "), ":")
		if !ok {
			continue
		}

		h.setField(strings.TrimSpace(key), strings.TrimSpace(val))
	}

	return h
}

// setField sets the header field named by key to val, if the key is known.
func (h *Header) setField(key, val string) {
	switch key {
	case "Title":
		h.Title = val
	case "Description":
		h.Description = val
	case "Version", "v":
		h.Version = val
	case "Homepage":
		h.Homepage = val
	case "Expires":
		h.Expires = parseExpires(val)
	case "Last modified", "TimeUpdated":
		h.TimeUpdated = parseTimeUpdated(val)
	default:
		// Skip unknown fields.
	}
}

// parseTimeUpdated parses the value of the "Last modified" field, trying the
// known layouts.  It returns a zero time if none match.
func parseTimeUpdated(val string) (upd time.Time) {
	for _, layout := range timeUpdatedLayouts {
		t, err := time.Parse(layout, val)
		if err == nil {
			return t
		}
	}

	return time.Time{}
}

// parseExpires parses the value of the "Expires" field, which has the form
// "4 days" or "12 hours", possibly followed by a parenthesized remark.  It
// returns zero if the value is malformed.
func parseExpires(val string) (period time.Duration) {
	fields := strings.Fields(val)
	if len(fields) < 2 {
		return 0
	}

	var num int
	for _, r := range fields[0] {
		if r < '0' || r > '9' {
			return 0
		}

		num = num*10 + int(r-'0')
	}

	switch unit := fields[1]; {
	case strings.HasPrefix(unit, "day"):
		return time.Duration(num) * 24 * time.Hour
	case strings.HasPrefix(unit, "hour"):
		return time.Duration(num) * time.Hour
	default:
		return 0
	}
}

// CountRules returns the number of lines of text that are neither empty nor
// comments.
func CountRules(text string) (n int) {
	s := bufio.NewScanner(strings.NewReader(text))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" ||
			strings.HasPrefix(line, commentPrefix) ||
			strings.HasPrefix(line, "# ") {
			continue
		}

		n++
	}

	return n
}
