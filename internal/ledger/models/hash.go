package models

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	id "civitas/pkg/domain"
)

// NewNonce returns a random per-vote nonce. The nonce makes the vote hash
// non-deterministic: two votes for the same candidate never share a hash, so
// comparing hashes across votes leaks nothing about candidate equality.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ComputeVoteHash derives the one-way receipt hash from the vote's content,
// its nonce, and a server-side secret. Without the secret and nonce the hash
// is not reversible to a candidate choice.
func ComputeVoteHash(secret string, electionID id.ElectionID, candidateID id.CandidateID, voterID id.UserID, castAtUnixNano int64, nonce string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(electionID.String()))
	mac.Write([]byte{'|'})
	mac.Write([]byte(candidateID.String()))
	mac.Write([]byte{'|'})
	mac.Write([]byte(voterID.String()))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(castAtUnixNano, 10)))
	mac.Write([]byte{'|'})
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashEqual compares two hashes in constant time.
func HashEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
