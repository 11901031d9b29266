// Package agdhttp contains common constants, functions, and types for working
// with HTTP.
package agdhttp

import "github.com/AdguardTeam/AdGuardFilters/internal/version"

// userAgent is the cached User-Agent string for the filter manager.
var userAgent = version.Name() + "/" + version.Version()

// UserAgent returns the ID of the service as a User-Agent string.  It can
// also be used as the value of the Server HTTP header.
func UserAgent() (ua string) {
	return userAgent
}
