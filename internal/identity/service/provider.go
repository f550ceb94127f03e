package service

import (
	"context"

	id "civitas/pkg/domain"
)

// Outcome is the result reported by an external identity verification
// provider (biometric match, OTP challenge).
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// VerificationCallback is what the service exposes to providers. Matching
// logic stays entirely on the provider side.
type VerificationCallback interface {
	OnIdentityVerified(ctx context.Context, userID id.UserID, outcome Outcome) error
}

var _ VerificationCallback = (*Service)(nil)

// StaticProvider approves or rejects every submission with a fixed outcome.
// Dev wiring and tests stand in for the real biometric/OTP provider with it.
type StaticProvider struct {
	Outcome  Outcome
	Callback VerificationCallback
}

// Submit reports the fixed outcome for the user through the callback.
func (p *StaticProvider) Submit(ctx context.Context, userID id.UserID) error {
	return p.Callback.OnIdentityVerified(ctx, userID, p.Outcome)
}
