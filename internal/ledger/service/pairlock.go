package service

import (
	"sync"

	id "civitas/pkg/domain"
)

// numPairShards spreads (election, voter) pairs across independent mutexes.
// Unrelated votes never contend on the same lock beyond hash collisions;
// there is no global lock.
const numPairShards = 128

// pairLocks serializes the check-then-insert window of CastVote per
// (election, voter) pair. The store's uniqueness guard is the backstop; this
// lock makes the common double-submit fail on the cheap pre-check instead of
// a store round trip.
type pairLocks struct {
	shards [numPairShards]sync.Mutex
}

func (l *pairLocks) lock(electionID id.ElectionID, voterID id.UserID) *sync.Mutex {
	m := &l.shards[pairShard(electionID, voterID)]
	m.Lock()
	return m
}

func pairShard(electionID id.ElectionID, voterID id.UserID) uint32 {
	return fnv32(electionID.String()+"|"+voterID.String()) % numPairShards
}

// fnv32 is FNV-1a, chosen for its distribution over sequential UUID strings.
func fnv32(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
