// Package main provides the entry point for petrelmq-server.
//
// petrelmq-server hosts the broker's payload persistence engine: a
// durable, sharded local store for publish payload bytes, keyed by
// monotonically increasing IDs that survive restarts without reuse.
package main
