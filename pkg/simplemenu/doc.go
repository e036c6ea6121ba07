// Package simplemenu provides the menu board library: a thin orchestration
// layer over a remote object store that keeps restaurant menu images under a
// zone/name key convention.
//
// A menu item is never stored as a record of its own. It is reconstructed on
// every catalog read by joining the listings of all zones by base name and
// attaching the item's visibility flags from the visibility store. Listings
// are served from a short-lived read-through cache that every mutating
// operation clears.
//
// Multi-Zone Operations
//
// Rename, Duplicate and Delete act on each zone independently. A zone where
// the source object is absent is skipped, a zone that fails is reported, and
// nothing is rolled back. The aggregate Outcome reports success, partial or
// error.
package simplemenu
