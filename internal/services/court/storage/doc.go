// Package storage defines persistence contracts for the court service: the
// event journal, its paged query surface, and journal verification.
// Implementations live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrSequenceConflict: a concurrent writer claimed the same sequence
package storage
