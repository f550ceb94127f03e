// Package audit captures key actions as transport-agnostic events so stores
// and sinks can fan out.
package audit

import (
	"time"

	id "civitas/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// profile registration, verification decisions, result publication.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to monitoring and forensics:
	// role changes, rejected administrative actions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for operational visibility:
	// votes accepted, tallies computed.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic. A vote event never carries the
// candidate choice; the ledger's anonymity guarantees extend to the audit
// trail.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"user_id"`
	Subject   string        `json:"subject,omitempty"`
	Action    string        `json:"action"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an official acting on a voter's profile.
	ActorID string `json:"actor_id,omitempty"`
}

// AuditEvent names the actions the service records.
type AuditEvent string

const (
	EventProfileRegistered          AuditEvent = "profile_registered"
	EventProfileVerificationChanged AuditEvent = "profile_verification_changed"
	EventRoleAssigned               AuditEvent = "role_assigned"
	EventRoleRevoked                AuditEvent = "role_revoked"
	EventElectionCreated            AuditEvent = "election_created"
	EventElectionCancelled          AuditEvent = "election_cancelled"
	EventCandidateAdded             AuditEvent = "candidate_added"
	EventVoteCast                   AuditEvent = "vote_cast"
	EventTallyComputed              AuditEvent = "tally_computed"
)
