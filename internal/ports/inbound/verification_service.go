package inbound

import "context"

// VerificationService defines the guest email challenge operations
type VerificationService interface {
	// RequestCode issues a fresh code for the email and hands it to the
	// email delivery collaborator. Replaces any prior challenge outright.
	RequestCode(ctx context.Context, email string) error

	// SubmitCode consumes the active challenge for the email. A challenge
	// can be consumed at most once, and only before it expires.
	SubmitCode(ctx context.Context, email, code string) error
}
