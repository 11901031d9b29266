// AdGuardFilters is the AdGuard filter-subscription manager: it keeps the
// catalog of filter lists, their user-controlled state, and their downloaded
// rules up to date.
package main

import "github.com/AdguardTeam/AdGuardFilters/internal/cmd"

func main() {
	cmd.Main()
}
