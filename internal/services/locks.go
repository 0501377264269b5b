package services

import (
	"hash/fnv"
	"sync"
)

const numOwnerShards = 64

// ownerLocks serializes mutations per owner id using a fixed set of sharded mutexes.
// Distinct owners may share a shard; that only costs contention, never correctness.
type ownerLocks struct {
	shards [numOwnerShards]sync.Mutex
}

func NewOwnerLocks() *ownerLocks {
	return &ownerLocks{}
}

// Lock acquires the shard for id and returns its unlock func.
func (l *ownerLocks) Lock(id string) func() {
	m := &l.shards[shardFor(id)]
	m.Lock()
	return m.Unlock
}

func shardFor(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32() % numOwnerShards
}
