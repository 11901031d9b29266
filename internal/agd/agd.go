// Package agd contains the common entities of the AdGuard filter-subscription
// manager: filters, filter groups, tags, and the errors shared between the
// packages of this module.
package agd
