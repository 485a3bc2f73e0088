// Package payload provides the publish payload persistence engine.
//
// The engine stores message payload bytes keyed by a monotonically
// increasing uint64 ID and guarantees that IDs are never reused across a
// process restart, even though removed payloads are no longer
// enumerable.
//
// Components:
//
//   - Allocator: process-wide atomic ID counter, reconciled at startup
//     against the highest ID found on disk
//   - BucketIndex: pure hash/mod routing of an ID to its bucket
//   - Engine: the put/get/remove/list facade plus the lifecycle
//     coordinator (parallel bucket startup, readiness barrier, retrying
//     shutdown)
//
// Buckets are independent: operations on different buckets share no
// lock, and nothing may rely on cross-bucket atomicity.
package payload
