package inbound

import (
	"context"

	"skupply-market-service/internal/domain/bid"
	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// OfferService defines the bid state machine operations
type OfferService interface {
	// PlaceBid appends a new pending bid to a listing
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// AcceptBid accepts one bid, rejects all other pending bids and marks
	// the listing sold
	AcceptBid(ctx context.Context, req AcceptBidRequest) (*bid.Bid, error)

	// RejectBid rejects a single bid
	RejectBid(ctx context.Context, req RejectBidRequest) (*bid.Bid, error)

	// ResetOffers archives every pending and rejected bid on a listing
	ResetOffers(ctx context.Context, req ResetOffersRequest) error

	// ListingsWithPendingOffers returns the seller's active listings that
	// hold at least one pending bid
	ListingsWithPendingOffers(ctx context.Context, actor *shared.Actor) ([]*listing.Listing, error)

	// GetListing retrieves a listing by ID
	GetListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
}

// request to place a bid; Actor is nil for guests, which must instead
// supply a verified email and a fresh, unconsumed code
type PlaceBidRequest struct {
	ListingID    uuid.UUID     `json:"listing_id"`
	Amount       float64       `json:"amount"`
	Actor        *shared.Actor `json:"-"`
	GuestEmail   string        `json:"guest_email,omitempty"`
	GuestCode    string        `json:"guest_code,omitempty"`
	PaymentToken string        `json:"payment_token,omitempty"`
}

// request to accept a bid
type AcceptBidRequest struct {
	ListingID uuid.UUID     `json:"listing_id"`
	BidID     uuid.UUID     `json:"bid_id"`
	Actor     *shared.Actor `json:"-"`
}

// request to reject a bid
type RejectBidRequest struct {
	ListingID uuid.UUID     `json:"listing_id"`
	BidID     uuid.UUID     `json:"bid_id"`
	Actor     *shared.Actor `json:"-"`
}

// request to archive all open offers on a listing
type ResetOffersRequest struct {
	ListingID uuid.UUID     `json:"listing_id"`
	Actor     *shared.Actor `json:"-"`
}
