package outbound

import "context"

// EmailSender is the transactional email delivery collaborator. Only the
// verification code-request path uses it; the bid state machine never
// sends email directly.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
