package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "civitas/pkg/domain"
)

// =============================================================================
// Publisher Test Suite
// =============================================================================

type PublisherSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *PublisherSuite) event(action AuditEvent, userID id.UserID) Event {
	return Event{
		Category: CategoryOperations,
		Action:   string(action),
		UserID:   userID,
	}
}

func (s *PublisherSuite) TestSynchronousEmit() {
	p := NewPublisher(s.store)
	defer p.Close()

	userID := id.NewUserID()
	err := p.Emit(context.Background(), s.event(EventVoteCast, userID))
	s.Require().NoError(err)

	events, err := s.store.ListByUser(context.Background(), userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(EventVoteCast), events[0].Action)
	s.False(events[0].Timestamp.IsZero(), "emit stamps the timestamp")
}

func (s *PublisherSuite) TestEmitPreservesExplicitTimestamp() {
	p := NewPublisher(s.store)
	defer p.Close()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	event := s.event(EventElectionCreated, id.NewUserID())
	event.Timestamp = at
	s.Require().NoError(p.Emit(context.Background(), event))

	events, err := s.store.ListByAction(context.Background(), EventElectionCreated)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.True(events[0].Timestamp.Equal(at))
}

func (s *PublisherSuite) TestAsyncBufferDrainsOnClose() {
	p := NewPublisher(s.store, WithAsyncBuffer(64))

	userID := id.NewUserID()
	for i := 0; i < 10; i++ {
		s.Require().NoError(p.Emit(context.Background(), s.event(EventVoteCast, userID)))
	}
	p.Close()

	events, err := s.store.ListByUser(context.Background(), userID)
	s.Require().NoError(err)
	s.Len(events, 10, "close drains every buffered event")
}

func (s *PublisherSuite) TestAsyncFullBufferDropsInsteadOfBlocking() {
	blocker := &blockingSink{release: make(chan struct{})}
	p := NewPublisher(blocker, WithAsyncBuffer(1))

	// First event occupies the worker, second fills the buffer. The rest
	// must return immediately without blocking the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = p.Emit(context.Background(), s.event(EventVoteCast, id.NewUserID()))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("emit blocked on a full buffer")
	}
	close(blocker.release)
	p.Close()
}

func (s *PublisherSuite) TestCloseIsIdempotent() {
	p := NewPublisher(s.store, WithAsyncBuffer(4))
	p.Close()
	p.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (b *blockingSink) Append(ctx context.Context, event Event) error {
	<-b.release
	return nil
}
