package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/domain/verification"
	"skupply-market-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// VerificationService implements the guest email challenge use cases
type VerificationService struct {
	store  outbound.ChallengeStore
	mailer outbound.EmailSender
	clock  func() time.Time
	logger zerolog.Logger
}

type VerificationServiceParams struct {
	Store  outbound.ChallengeStore
	Mailer outbound.EmailSender
	Clock  func() time.Time
	Logger zerolog.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(params VerificationServiceParams) *VerificationService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &VerificationService{
		store:  params.Store,
		mailer: params.Mailer,
		clock:  clock,
		logger: params.Logger.With().Str("component", "verification_service").Logger(),
	}
}

// RequestCode issues a fresh single-use code for the email and delivers
// it through the email collaborator. The challenge is stored only after
// the send succeeds, so a delivery failure never leaves a usable
// undelivered code behind.
func (s *VerificationService) RequestCode(ctx context.Context, email string) error {
	email = verification.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return shared.ErrInvalidRequest
	}

	challenge, err := verification.NewChallenge(email, s.clock())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create verification challenge")
		return err
	}

	subject := "Your verification code"
	body := fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.",
		challenge.Code, int(verification.TTL.Minutes()),
	)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to deliver verification code")
		return shared.ErrEmailServiceUnavailable
	}

	if err := s.store.Put(ctx, challenge); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to store verification challenge")
		return err
	}

	s.logger.Info().
		Str("email", email).
		Time("expires_at", challenge.ExpiresAt).
		Msg("Verification code issued")
	return nil
}

// SubmitCode consumes the active challenge for the email. A second call
// after a successful one fails with ErrChallengeAlreadyUsed.
func (s *VerificationService) SubmitCode(ctx context.Context, email, code string) error {
	email = verification.NormalizeEmail(email)

	if _, err := s.store.Consume(ctx, email, code, s.clock()); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Verification code rejected")
		return err
	}

	s.logger.Info().Str("email", email).Msg("Verification code accepted")
	return nil
}
