package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over stripe indices [0, stripes)
type ring struct {
	hashRing *treemap.Map

	// minStripe caches the value of the min entry in hashRing, which the
	// lookup wraps around to. treemap.Map.Min() is O(log n).
	minStripe int
}

// newRing returns a new consistent hash ring where each stripe has
// replicationFactor entries
func newRing(stripes, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		stripeHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("stripe%d", stripe)))

		entry := make([]byte, 12)
		binary.LittleEndian.PutUint64(entry, stripeHash)
		for i := uint32(0); i < uint32(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(entry[8:], i)
			hash, _ := murmur3.Sum128(entry)
			hashRing.Put(int64(hash), stripe)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, minStripe := hashRing.Min(); minStripe != nil {
		r.minStripe = minStripe.(int)
	}
	return r
}

// shard consistently hashes the key to a stripe
func (r *ring) shard(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.hashRing.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.minStripe
}
