package agd

import "fmt"

// GroupID is the unique ID of a group of filters.
type GroupID int32

// Special GroupID values shared across the AdGuard filter-subscription
// manager.
//
// DO NOT change these as the filter index and the host applications depend on
// these values.
const (
	// GroupIDCustom is the group containing the filters added by the user
	// from arbitrary URLs.
	GroupIDCustom GroupID = 0

	// GroupIDAdBlocking is the general ad-blocking group.
	GroupIDAdBlocking GroupID = 1

	// GroupIDPrivacy is the privacy-protection group.
	GroupIDPrivacy GroupID = 2

	// GroupIDSocial is the social-widgets group.
	GroupIDSocial GroupID = 3

	// GroupIDAnnoyances is the annoyances group.
	GroupIDAnnoyances GroupID = 4

	// GroupIDSecurity is the security group.
	GroupIDSecurity GroupID = 5

	// GroupIDOther is the group for miscellaneous filters.
	GroupIDOther GroupID = 6

	// GroupIDLanguageSpecific is the group of language-specific filters.
	GroupIDLanguageSpecific GroupID = 7
)

// ToggleState is the three-valued enabled state of a filter group.  The
// never-toggled state is distinct from the disabled one: the first transition
// out of it seeds the group's recommended filters.
type ToggleState uint8

// ToggleState values.
const (
	// ToggleStateNeverToggled means that the user has never explicitly
	// enabled or disabled the group.
	ToggleStateNeverToggled ToggleState = iota

	// ToggleStateEnabled means that the group is enabled.
	ToggleStateEnabled

	// ToggleStateDisabled means that the group is disabled.
	ToggleStateDisabled
)

// type check
var _ fmt.Stringer = ToggleStateNeverToggled

// String implements the [fmt.Stringer] interface for ToggleState.
func (st ToggleState) String() (s string) {
	switch st {
	case ToggleStateNeverToggled:
		return "never_toggled"
	case ToggleStateEnabled:
		return "enabled"
	case ToggleStateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("!bad_toggle_state_%d", uint8(st))
	}
}

// FilterGroup is an organizational category of filters.  The member filters
// are derived from [Filter.GroupID] and are not stored on the group.
type FilterGroup struct {
	// Name is the human-readable name of this group.
	Name string

	// ID is the unique ID of this group.
	ID GroupID

	// DisplayNumber defines the position of this group in listings.
	DisplayNumber int

	// Enabled is the three-valued enabled state of this group.  It is a
	// projection of the persisted group state.
	Enabled ToggleState
}

// Clone returns a copy of g.
func (g *FilterGroup) Clone() (clone *FilterGroup) {
	if g == nil {
		return nil
	}

	clone = &FilterGroup{}
	*clone = *g

	return clone
}
