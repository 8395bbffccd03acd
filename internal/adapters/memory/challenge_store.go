package memory

import (
	"context"
	"sync"
	"time"

	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/domain/verification"
)

// ChallengeStore is a concurrency-safe in-memory verification store
// keyed by normalized email, one active challenge per address.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]*verification.Challenge
}

// NewChallengeStore creates an empty in-memory challenge store
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]*verification.Challenge),
	}
}

// Put stores a challenge, replacing any prior one for the same email
func (s *ChallengeStore) Put(ctx context.Context, c *verification.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.challenges[verification.NormalizeEmail(c.Email)] = &copied
	return nil
}

// Get retrieves the active challenge for an email
func (s *ChallengeStore) Get(ctx context.Context, email string) (*verification.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[verification.NormalizeEmail(email)]
	if !ok {
		return nil, shared.ErrChallengeNotFound
	}
	copied := *c
	return &copied, nil
}

// Consume atomically validates the code and marks the challenge used
func (s *ChallengeStore) Consume(ctx context.Context, email, code string, now time.Time) (*verification.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[verification.NormalizeEmail(email)]
	if !ok {
		return nil, shared.ErrChallengeNotFound
	}
	if err := c.Consume(code, now); err != nil {
		return nil, err
	}
	copied := *c
	return &copied, nil
}

// PruneExpired removes challenges past their expiry
func (s *ChallengeStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for email, c := range s.challenges {
		if now.After(c.ExpiresAt) {
			delete(s.challenges, email)
			pruned++
		}
	}
	return pruned, nil
}
