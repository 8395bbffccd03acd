// Package sweeper runs the periodic cleanup of expired verification
// challenges so the store does not accumulate dead entries.
package sweeper

import (
	"context"
	"sync"
	"time"

	"skupply-market-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

const sweepInterval = 5 * time.Minute

// ChallengeSweeper prunes expired challenges on a fixed interval.
type ChallengeSweeper struct {
	store  outbound.ChallengeStore
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ChallengeSweeperParams struct {
	Store  outbound.ChallengeStore
	Logger zerolog.Logger
}

// NewChallengeSweeper creates a new challenge sweeper
func NewChallengeSweeper(params ChallengeSweeperParams) *ChallengeSweeper {
	ctx, cancel := context.WithCancel(context.Background())

	return &ChallengeSweeper{
		store:  params.Store,
		logger: params.Logger.With().Str("component", "challenge_sweeper").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the sweep loop.
func (s *ChallengeSweeper) Start() {
	s.wg.Add(1)
	go s.run()
	s.logger.Info().Dur("interval", sweepInterval).Msg("Challenge sweeper started")
}

// Stop halts the sweep loop and waits for it to finish.
func (s *ChallengeSweeper) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Challenge sweeper stopped")
}

func (s *ChallengeSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			pruned, err := s.store.PruneExpired(s.ctx, time.Now())
			if err != nil {
				s.logger.Error().Err(err).Msg("Challenge sweep failed")
				continue
			}
			if pruned > 0 {
				s.logger.Info().Int("pruned", pruned).Msg("Expired challenges pruned")
			}
		}
	}
}
