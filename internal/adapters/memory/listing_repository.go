// Package memory provides in-process adapters backing the outbound
// storage ports. The listing repository honors the same optimistic
// read-mutate-write contract as the database adapter, so the state
// machine behaves identically under test and in production.
package memory

import (
	"context"
	"sync"

	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

const maxUpdateAttempts = 5

// ListingRepository is a concurrency-safe in-memory listing store using
// copy-on-write snapshots and a version check at commit time.
type ListingRepository struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listing.Listing
	versions map[uuid.UUID]uint64
}

// NewListingRepository creates an empty in-memory listing repository
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		listings: make(map[uuid.UUID]*listing.Listing),
		versions: make(map[uuid.UUID]uint64),
	}
}

// Create stores a new listing
func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = l.Clone()
	r.versions[l.ID] = 1
	return nil
}

// GetByID retrieves a copy of the listing
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	l, _, err := r.snapshot(id)
	return l, err
}

// UpdateListing runs fn against a private snapshot and commits it only
// if no other writer got in between, retrying the cycle otherwise.
func (r *ListingRepository) UpdateListing(ctx context.Context, id uuid.UUID, fn func(*listing.Listing) error) (*listing.Listing, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		snapshot, version, err := r.snapshot(id)
		if err != nil {
			return nil, err
		}

		if err := fn(snapshot); err != nil {
			return nil, err
		}

		if r.commit(id, snapshot, version) {
			return snapshot, nil
		}
	}
	return nil, shared.ErrTransactionFailed
}

// ListWithPendingBids retrieves the seller's biddable listings holding
// at least one pending bid.
func (r *ListingRepository) ListWithPendingBids(ctx context.Context, sellerID uuid.UUID) ([]*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*listing.Listing
	for _, l := range r.listings {
		if l.SellerID == sellerID && l.CanBid() && l.HasPendingBids() {
			result = append(result, l.Clone())
		}
	}
	return result, nil
}

func (r *ListingRepository) snapshot(id uuid.UUID) (*listing.Listing, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, 0, shared.ErrListingNotFound
	}
	return l.Clone(), r.versions[id], nil
}

func (r *ListingRepository) commit(id uuid.UUID, l *listing.Listing, expectedVersion uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.versions[id] != expectedVersion {
		return false
	}
	r.listings[id] = l.Clone()
	r.versions[id] = expectedVersion + 1
	return true
}
