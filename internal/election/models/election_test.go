package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civitas/pkg/domain-errors"
)

// TestStatusAt pins the lifecycle derivation: status is a pure function of
// the clock and the voting window, with cancellation overriding everything.
func TestStatusAt(t *testing.T) {
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	e, err := NewElection(Definition{
		Name:    "General Election",
		StartAt: start,
		EndAt:   end,
	}, start.Add(-24*time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"before the window", start.Add(-time.Hour), StatusUpcoming},
		{"exactly at start", start, StatusActive},
		{"inside the window", start.Add(6 * time.Hour), StatusActive},
		{"exactly at end", end, StatusCompleted},
		{"after the window", end.Add(time.Hour), StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.StatusAt(tt.now))
		})
	}

	t.Run("cancellation overrides the window", func(t *testing.T) {
		cancelled := *e
		cancelled.ApplyCancellation(start.Add(time.Hour))
		assert.Equal(t, StatusCancelled, cancelled.StatusAt(start.Add(2*time.Hour)))
		assert.Equal(t, StatusCancelled, cancelled.StatusAt(end.Add(time.Hour)))
	})
}

func TestCanCancel(t *testing.T) {
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	newElection := func(t *testing.T) *Election {
		t.Helper()
		e, err := NewElection(Definition{Name: "By-Election", StartAt: start, EndAt: end}, start.Add(-time.Hour))
		require.NoError(t, err)
		return e
	}

	t.Run("upcoming can be cancelled", func(t *testing.T) {
		assert.NoError(t, newElection(t).CanCancel(start.Add(-time.Minute)))
	})

	t.Run("active can be cancelled", func(t *testing.T) {
		assert.NoError(t, newElection(t).CanCancel(start.Add(time.Hour)))
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		err := newElection(t).CanCancel(end.Add(time.Minute))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("cancelled cannot be cancelled again", func(t *testing.T) {
		e := newElection(t)
		e.ApplyCancellation(start)
		err := e.CanCancel(start.Add(time.Minute))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestNewElection(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("end must be after start", func(t *testing.T) {
		_, err := NewElection(Definition{
			Name:    "Broken Window",
			StartAt: now.Add(2 * time.Hour),
			EndAt:   now.Add(time.Hour),
		}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("zero-length window is rejected", func(t *testing.T) {
		at := now.Add(time.Hour)
		_, err := NewElection(Definition{Name: "Instant", StartAt: at, EndAt: at}, now)
		require.Error(t, err)
	})

	t.Run("name is required", func(t *testing.T) {
		_, err := NewElection(Definition{StartAt: now, EndAt: now.Add(time.Hour)}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
