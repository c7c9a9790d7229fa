// Package storage is the optional persistence layer.
//
// It keeps:
//   - the last fetched or uploaded source document (one snapshot slot), so
//     a restart can serve data without refetching
//   - an append-only audit log of operator actions
package storage
