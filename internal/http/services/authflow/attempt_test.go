package authflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castward/castlink/internal/cache"
)

func newStore(t *testing.T) *AttemptStore {
	t.Helper()
	return NewAttemptStore(cache.NewMemory("test"))
}

func TestAttempt_SingleConsumption(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Begin(ctx, Attempt{State: "stateA", Provider: "chat", Mode: ModeLogin, Verifier: "v1"})
	require.NoError(t, err)

	a, err := s.Verify(ctx, id, "stateA")
	require.NoError(t, err)
	require.Equal(t, "v1", a.Verifier)
	require.Equal(t, ModeLogin, a.Mode)

	// Second callback with the same attempt: already consumed.
	_, err = s.Verify(ctx, id, "stateA")
	require.True(t, errors.Is(err, ErrAttemptExpired))
}

func TestAttempt_ConcurrentDuplicateCallbacks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Begin(ctx, Attempt{State: "stateA", Provider: "chat", Mode: ModeLogin})
	require.NoError(t, err)

	// A provider retry can deliver the same callback twice at once. The
	// consume is atomic, so exactly one delivery may verify.
	const callers = 16
	gate := make(chan struct{})
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			<-gate
			_, err := s.Verify(ctx, id, "stateA")
			results <- err
		}()
	}
	close(gate)

	wins, losses := 0, 0
	for i := 0; i < callers; i++ {
		err := <-results
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAttemptExpired):
			losses++
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, callers-1, losses)
}

func TestAttempt_StateMismatchConsumes(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Begin(ctx, Attempt{State: "stateA", Provider: "chat", Mode: ModeLogin})
	require.NoError(t, err)

	_, err = s.Verify(ctx, id, "stateB")
	require.True(t, errors.Is(err, ErrStateMismatch))

	// The mismatching callback still burned the attempt.
	_, err = s.Verify(ctx, id, "stateA")
	require.True(t, errors.Is(err, ErrAttemptExpired))
}

func TestAttempt_MissingIDIsExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Verify(ctx, "", "stateA")
	require.True(t, errors.Is(err, ErrAttemptExpired))

	_, err = s.Verify(ctx, "never-created", "stateA")
	require.True(t, errors.Is(err, ErrAttemptExpired))
}

func TestAttempt_EmptyStateNeverMatches(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Begin(ctx, Attempt{State: "stateA", Provider: "chat", Mode: ModeLink, AccountID: "acc-1"})
	require.NoError(t, err)

	_, err = s.Verify(ctx, id, "")
	require.True(t, errors.Is(err, ErrStateMismatch))
}
