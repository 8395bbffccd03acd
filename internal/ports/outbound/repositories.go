package outbound

import (
	"context"
	"time"

	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/verification"

	"github.com/google/uuid"
)

// ListingRepository defines the interface for listing aggregate operations.
// The bid list lives embedded inside the listing, so every mutation goes
// through UpdateListing as one whole-aggregate transaction.
type ListingRepository interface {
	// Create stores a new listing
	Create(ctx context.Context, l *listing.Listing) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error)

	// UpdateListing runs fn against the latest snapshot of the listing and
	// commits the result atomically. On a conflicting concurrent write the
	// whole read-mutate-write cycle is retried transparently; fn may
	// therefore run more than once and must compute its result purely from
	// the snapshot it is handed. A non-nil error from fn aborts the update
	// without retrying and is returned unchanged.
	UpdateListing(ctx context.Context, id uuid.UUID, fn func(*listing.Listing) error) (*listing.Listing, error)

	// ListWithPendingBids retrieves the seller's biddable listings that
	// hold at least one pending bid. Eventually-consistent reads are fine.
	ListWithPendingBids(ctx context.Context, sellerID uuid.UUID) ([]*listing.Listing, error)
}

// ChallengeStore defines the interface for verification challenge storage.
// One active challenge per email; a Put for an existing email overwrites.
type ChallengeStore interface {
	// Put stores a challenge, replacing any prior one for the same email
	Put(ctx context.Context, c *verification.Challenge) error

	// Get retrieves the active challenge for an email
	Get(ctx context.Context, email string) (*verification.Challenge, error)

	// Consume atomically validates the code and marks the challenge used.
	// Fails with the specific challenge error otherwise.
	Consume(ctx context.Context, email, code string, now time.Time) (*verification.Challenge, error)

	// PruneExpired removes challenges past their expiry, returning how
	// many were dropped
	PruneExpired(ctx context.Context, now time.Time) (int, error)
}
