package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"skupply-market-service/internal/domain/shared"
)

const (
	// CodeLength is the number of digits in a verification code.
	CodeLength = 5

	// TTL is how long a code stays valid after issue.
	TTL = 10 * time.Minute
)

// Challenge represents one pending guest identity check: a single-use
// numeric code bound to an email address. A new challenge for the same
// email replaces the prior one outright.
type Challenge struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChallenge issues a fresh challenge for the email.
func NewChallenge(email string, now time.Time) (*Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return &Challenge{
		Email:     NormalizeEmail(email),
		Code:      code,
		ExpiresAt: now.Add(TTL),
		Used:      false,
		CreatedAt: now,
	}, nil
}

// Consume validates the supplied code against the challenge and marks it
// used. It can succeed at most once, and only before expiry.
func (c *Challenge) Consume(code string, now time.Time) error {
	if c.Used {
		return shared.ErrChallengeAlreadyUsed
	}
	if now.After(c.ExpiresAt) {
		return shared.ErrChallengeExpired
	}
	if c.Code != code {
		return shared.ErrCodeMismatch
	}
	c.Used = true
	return nil
}

// NormalizeEmail canonicalizes an email address for use as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode produces a zero-padded numeric code from crypto/rand.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
