package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/domain/verification"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const challengeKeyPrefix = "verify:"

// Challenges are kept past their validity window so an expired code is
// reported as expired rather than not found.
const challengeRetention = 3 * verification.TTL

// ChallengeStore keeps verification challenges in Redis, one key per
// email. Consume runs under WATCH so two racing submissions cannot both
// mark the same challenge used.
type ChallengeStore struct {
	client *redis.Client
	logger zerolog.Logger
}

type ChallengeStoreParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewChallengeStore creates a Redis-backed challenge store
func NewChallengeStore(params ChallengeStoreParams) *ChallengeStore {
	return &ChallengeStore{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "challenge_store").Logger(),
	}
}

// Put stores a challenge, replacing any prior one for the same email
func (s *ChallengeStore) Put(ctx context.Context, c *verification.Challenge) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	key := challengeKey(c.Email)
	if err := s.client.Set(ctx, key, payload, challengeRetention).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Get retrieves the active challenge for an email
func (s *ChallengeStore) Get(ctx context.Context, email string) (*verification.Challenge, error) {
	payload, err := s.client.Get(ctx, challengeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	var c verification.Challenge
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &c, nil
}

// Consume atomically validates the code and marks the challenge used
func (s *ChallengeStore) Consume(ctx context.Context, email, code string, now time.Time) (*verification.Challenge, error) {
	key := challengeKey(email)
	var consumed *verification.Challenge

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return shared.ErrChallengeNotFound
			}
			return fmt.Errorf("failed to load challenge: %w", err)
		}

		var c verification.Challenge
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("failed to decode challenge: %w", err)
		}

		if err := c.Consume(code, now); err != nil {
			return err
		}

		updated, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("failed to encode challenge: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, challengeRetention)
			return nil
		})
		if err != nil {
			return err
		}

		consumed = &c
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// A concurrent submission won the race
			return nil, shared.ErrChallengeAlreadyUsed
		}
		return nil, err
	}

	return consumed, nil
}

// PruneExpired scans for challenges past their expiry and drops them.
// Redis key TTLs already bound retention; this keeps the scan cheap.
func (s *ChallengeStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	pruned := 0
	iter := s.client.Scan(ctx, 0, challengeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var c verification.Challenge
		if err := json.Unmarshal(payload, &c); err != nil {
			continue
		}
		if now.After(c.ExpiresAt) {
			if err := s.client.Del(ctx, key).Err(); err == nil {
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("challenge scan failed: %w", err)
	}
	return pruned, nil
}

func challengeKey(email string) string {
	return challengeKeyPrefix + verification.NormalizeEmail(email)
}
