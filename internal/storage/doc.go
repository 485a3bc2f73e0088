// Package storage provides the durable bucket store for PetrelMQ.
//
// Payload bytes are kept in independent buckets, each backed by its own
// Badger database with exclusively owned on-disk files. A bucket is one
// shard of the payload ID keyspace; routing IDs to buckets is the job of
// the payload engine, not this package.
//
// The package exposes:
//
//   - Bucket: the transactional key→blob contract of a single shard
//   - OpenBucket: the Badger-backed production implementation
//   - EnsureFormat: on-disk format version detection at startup
package storage
