package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/castward/castlink/internal/cache"
)

// Mode says what the browser was trying to do when it left for the provider.
type Mode string

const (
	ModeLogin Mode = "login"
	ModeLink  Mode = "link"
)

// AttemptTTL bounds how long a pending authorization round-trip stays valid.
const AttemptTTL = 10 * time.Minute

// Attempt is the server-side half of an in-flight authorization round-trip.
// It is keyed by a random attempt id handed to the browser in a cookie, so a
// missing record and a state mismatch are distinguishable on callback.
type Attempt struct {
	State     string    `json:"state"`
	Verifier  string    `json:"verifier,omitempty"`
	Provider  string    `json:"provider"`
	Mode      Mode      `json:"mode"`
	AccountID string    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrAttemptExpired: no pending attempt for this browser (expired,
	// consumed, or never created).
	ErrAttemptExpired = errors.New("authorization attempt expired")
	// ErrStateMismatch: an attempt exists but the returned state does not
	// match the one it was created with.
	ErrStateMismatch = errors.New("state mismatch")
)

// AttemptStore persists pending attempts in the cache with consume-on-read
// semantics: a record is deleted before its state is compared, so a replayed
// callback can never be verified twice.
type AttemptStore struct {
	cache cache.Client
}

func NewAttemptStore(c cache.Client) *AttemptStore {
	return &AttemptStore{cache: c}
}

func attemptKey(id string) string { return "authflow:attempt:" + id }

// Begin stores a new attempt and returns the attempt id for the cookie.
func (s *AttemptStore) Begin(ctx context.Context, a Attempt) (string, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal attempt: %w", err)
	}
	id := uuid.NewString()
	if err := s.cache.Set(ctx, attemptKey(id), string(raw), AttemptTTL); err != nil {
		return "", fmt.Errorf("store attempt: %w", err)
	}
	return id, nil
}

// Verify consumes the attempt for id and checks the returned state against
// the stored one. The consume is a single atomic read-and-delete, so of two
// racing duplicate callbacks exactly one can proceed; the other sees the
// attempt already gone.
func (s *AttemptStore) Verify(ctx context.Context, id, state string) (*Attempt, error) {
	if id == "" {
		return nil, ErrAttemptExpired
	}
	raw, err := s.cache.GetDel(ctx, attemptKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrAttemptExpired
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}

	var a Attempt
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, ErrAttemptExpired
	}
	if state == "" || a.State != state {
		return nil, ErrStateMismatch
	}
	return &a, nil
}
