package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civitas/pkg/domain"
)

func TestComputeVoteHash(t *testing.T) {
	electionID := id.NewElectionID()
	candidateID := id.NewCandidateID()
	voterID := id.NewUserID()
	castAt := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC).UnixNano()

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a := ComputeVoteHash("secret", electionID, candidateID, voterID, castAt, "nonce-1")
		b := ComputeVoteHash("secret", electionID, candidateID, voterID, castAt, "nonce-1")
		assert.Equal(t, a, b)
	})

	t.Run("nonce changes the hash", func(t *testing.T) {
		a := ComputeVoteHash("secret", electionID, candidateID, voterID, castAt, "nonce-1")
		b := ComputeVoteHash("secret", electionID, candidateID, voterID, castAt, "nonce-2")
		assert.NotEqual(t, a, b)
	})

	t.Run("secret changes the hash", func(t *testing.T) {
		a := ComputeVoteHash("secret", electionID, candidateID, voterID, castAt, "nonce-1")
		b := ComputeVoteHash("other", electionID, candidateID, voterID, castAt, "nonce-1")
		assert.NotEqual(t, a, b)
	})

	t.Run("same candidate with different nonces never collides", func(t *testing.T) {
		// Two voters picking the same candidate must not produce comparable
		// hashes; that is the entire point of the per-vote nonce.
		n1, err := NewNonce()
		require.NoError(t, err)
		n2, err := NewNonce()
		require.NoError(t, err)
		require.NotEqual(t, n1, n2)

		a := ComputeVoteHash("secret", electionID, candidateID, id.NewUserID(), castAt, n1)
		b := ComputeVoteHash("secret", electionID, candidateID, id.NewUserID(), castAt, n2)
		assert.NotEqual(t, a, b)
	})
}

func TestNewNonce(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n, err := NewNonce()
		require.NoError(t, err)
		assert.Len(t, n, 32)
		assert.False(t, seen[n], "nonces must not repeat")
		seen[n] = true
	}
}

func TestHashEqual(t *testing.T) {
	assert.True(t, HashEqual("abc", "abc"))
	assert.False(t, HashEqual("abc", "abd"))
	assert.False(t, HashEqual("abc", "abcd"))
}
