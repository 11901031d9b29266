package agd

import "fmt"

// Common Errors

// FilterNotFoundError is returned when a required filter could not be found
// by its ID.
type FilterNotFoundError struct {
	// ID is the ID of the filter.
	ID FilterID
}

// type check
var _ error = (*FilterNotFoundError)(nil)

// Error implements the error interface for *FilterNotFoundError.
func (err *FilterNotFoundError) Error() (msg string) {
	return fmt.Sprintf("filter %d not found", err.ID)
}

// GroupNotFoundError is returned when a required filter group could not be
// found by its ID.
type GroupNotFoundError struct {
	// ID is the ID of the group.
	ID GroupID
}

// type check
var _ error = (*GroupNotFoundError)(nil)

// Error implements the error interface for *GroupNotFoundError.
func (err *GroupNotFoundError) Error() (msg string) {
	return fmt.Sprintf("filter group %d not found", err.ID)
}

// NotCustomError is returned when a removal is requested for a filter that
// has not been added by the user.  Only custom filters can be removed.
type NotCustomError struct {
	// ID is the ID of the filter.
	ID FilterID
}

// type check
var _ error = (*NotCustomError)(nil)

// Error implements the error interface for *NotCustomError.
func (err *NotCustomError) Error() (msg string) {
	return fmt.Sprintf("filter %d is not a custom filter", err.ID)
}
