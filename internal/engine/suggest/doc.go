// Package suggest implements the registry of pending proposed edits.
//
// A suggestion is an Add, Delete or Replace proposal anchored to a range of
// the document. While pending, its range is re-mapped through every applied
// edit. It is resolved exactly once:
//
//	Pending -> Accepted   (Accept: the caller applies Resolution.Edit)
//	Pending -> Rejected   (Reject, or automatic ReasonRangeInvalidated)
//
// Resolving an id that is unknown or already resolved is a no-op reported
// through Resolution.AlreadyResolved, never an error.
//
// Staleness is handled by re-mapping alone: a suggestion registered many
// versions ago is still valid as long as its range survived. A Delete or
// Replace whose target text an edit destroyed is rejected automatically
// according to the registry's Invalidation policy.
package suggest
