package agd

// TagID is the unique ID of a filter tag.
type TagID int32

// Well-known tag keywords used by the recommendation predicates.
const (
	// TagKeywordRecommended marks a filter as suitable for automatic
	// offering to onboarding users.
	TagKeywordRecommended = "recommended"

	// TagKeywordMobile marks a filter as intended for mobile devices only.
	TagKeywordMobile = "mobile"
)

// Tag keyword namespace prefixes.  A keyword of the form "namespace:rest" is
// namespaced; see [TagKeywordSeparator].
const (
	// TagPrefixReference is the namespace of the tags that only reference
	// other filters.  Such tags are never displayed.
	TagPrefixReference = "reference"

	// TagPrefixLang is the namespace of the language tags.  Unlike other
	// namespaced keywords, language keywords are displayed verbatim.
	TagPrefixLang = "lang"
)

// TagKeywordSeparator separates the namespace of a tag keyword from the rest
// of it.
const TagKeywordSeparator = ":"

// Tag is a metadata label on a filter used for display annotation and
// recommendation predicates.
type Tag struct {
	// Keyword is the keyword of this tag, possibly with a namespace prefix.
	Keyword string

	// ID is the unique ID of this tag.
	ID TagID
}
