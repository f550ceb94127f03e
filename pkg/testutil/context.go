package testutil

import (
	"context"
	"time"

	id "civitas/pkg/domain"
	"civitas/pkg/requestcontext"
)

// ActorContext returns a context carrying the acting user, for calling
// services directly without the HTTP layer.
func ActorContext(userID id.UserID) context.Context {
	return requestcontext.WithActorID(context.Background(), userID)
}

// ClockContext pins the request clock so election status derivation is
// deterministic without sleeping.
func ClockContext(ctx context.Context, at time.Time) context.Context {
	return requestcontext.WithTime(ctx, at)
}
