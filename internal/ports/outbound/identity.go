package outbound

import (
	"context"

	"skupply-market-service/internal/domain/shared"
)

// IdentityProvider resolves a caller's token into a verified actor.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*shared.Actor, error)
}
