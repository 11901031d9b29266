// Package subscription contains the catalog of filter-list subscriptions and
// the parsing of the filter index it is built from.
//
// The catalog merges three sources of truth: the static metadata from the
// filter index, the persisted user-controlled state, and the persisted
// version info.  The identity and the static fields are owned by the catalog;
// the flags and the version fields are projections refreshed from the state
// storage by [Catalog.ApplyState] and [Catalog.ApplyVersions].
package subscription
