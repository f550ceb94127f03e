package models

import (
	"strings"
	"time"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// Status is the closed set of election lifecycle states.
//
// Status is never stored: it is derived from the clock relative to the
// start/end window, except for cancellation which is a one-way terminal
// transition recorded as a timestamp. Deriving on every read removes the
// classic staleness bug of a background job keeping a stored enum in sync.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Election is an election definition with a voting window.
//
// Invariants:
//   - EndAt > StartAt
//   - Transitions are monotonic: upcoming → active → completed, or
//     upcoming/active → cancelled; terminal states are final.
type Election struct {
	ID           id.ElectionID `json:"id"`
	Name         string        `json:"name"`
	Constituency string        `json:"constituency,omitempty"`
	Description  string        `json:"description,omitempty"`
	StartAt      time.Time     `json:"start_at"`
	EndAt        time.Time     `json:"end_at"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// StatusAt derives the lifecycle status at the given instant. Every reader
// uses this; no component stores a status.
func (e *Election) StatusAt(now time.Time) Status {
	if e.CancelledAt != nil {
		return StatusCancelled
	}
	switch {
	case now.Before(e.StartAt):
		return StatusUpcoming
	case now.Before(e.EndAt):
		return StatusActive
	default:
		return StatusCompleted
	}
}

// CanCancel checks the one-way cancellation transition. Completed and
// already-cancelled elections cannot be cancelled.
func (e *Election) CanCancel(now time.Time) error {
	status := e.StatusAt(now)
	if status.Terminal() {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot cancel a %s election", status)
	}
	return nil
}

// ApplyCancellation records the cancellation. Call CanCancel first.
func (e *Election) ApplyCancellation(now time.Time) {
	t := now
	e.CancelledAt = &t
}

// Definition carries the fields for creating an election.
type Definition struct {
	Name         string
	Constituency string
	Description  string
	StartAt      time.Time
	EndAt        time.Time
}

// NewElection builds an election, enforcing the window invariant.
func NewElection(def Definition, now time.Time) (*Election, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "election name is required")
	}
	if def.StartAt.IsZero() || def.EndAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "start and end times are required")
	}
	if !def.EndAt.After(def.StartAt) {
		return nil, dErrors.New(dErrors.CodeValidation, "end time must be after start time")
	}
	return &Election{
		ID:           id.NewElectionID(),
		Name:         name,
		Constituency: strings.TrimSpace(def.Constituency),
		Description:  strings.TrimSpace(def.Description),
		StartAt:      def.StartAt,
		EndAt:        def.EndAt,
		CreatedAt:    now,
	}, nil
}
