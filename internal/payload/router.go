package payload

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// BucketIndex routes a payload ID to its bucket.
//
// The mapping is a pure function of id and bucketCount and must stay
// stable for the lifetime of a deployment: the same ID always lands in
// the same bucket, for existing and future payloads alike. Changing the
// bucket count without migrating on-disk data invalidates the
// assignment of everything already stored.
func BucketIndex(id uint64, bucketCount int) int {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], id)
	return int(murmur3.Sum64(key[:]) % uint64(bucketCount))
}
