package app

import (
	"context"
	"fmt"
	"time"

	"skupply-market-service/internal/domain/bid"
	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/guestid"
	"skupply-market-service/internal/ports/inbound"
	"skupply-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OfferService implements the bid state machine use cases
type OfferService struct {
	listings outbound.ListingRepository
	verifier inbound.VerificationService
	notifier outbound.Notifier
	clock    func() time.Time
	logger   zerolog.Logger
}

type OfferServiceParams struct {
	Listings outbound.ListingRepository
	Verifier inbound.VerificationService
	Notifier outbound.Notifier
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(params OfferServiceParams) *OfferService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &OfferService{
		listings: params.Listings,
		verifier: params.Verifier,
		notifier: params.Notifier,
		clock:    clock,
		logger:   params.Logger.With().Str("component", "offer_service").Logger(),
	}
}

// PlaceBid appends a new pending bid to a listing. For guests the
// supplied email challenge is consumed once validation passes; a
// challenge authorizes exactly one bid.
func (s *OfferService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Float64("amount", req.Amount).
		Bool("guest", req.Actor == nil).
		Msg("Attempting to place bid")

	// Pre-flight against a current snapshot: checks run in a fixed order
	// (existence, amount, listing state, self-bid) and all of them come
	// before the guest challenge is consumed, so a request that cannot
	// succeed does not burn a single-use code.
	bidder, err := s.preflight(ctx, req)
	if err != nil {
		return nil, err
	}

	// The mutator may run more than once on a write conflict; it derives
	// everything from the snapshot it is handed, so the last run wins.
	var created *bid.Bid
	var outbid *bid.Bid
	updated, err := s.listings.UpdateListing(ctx, req.ListingID, func(l *listing.Listing) error {
		if err := validatePlacement(l, bidder); err != nil {
			return err
		}

		outbid = l.HighestPendingUnder(req.Amount, bidder)
		created = bid.New(bidder, req.Amount, req.PaymentToken, s.clock())
		l.PlaceBid(created)
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("listing_id", req.ListingID.String()).Msg("Bid placement rejected")
		return nil, err
	}

	s.logger.Info().
		Str("bid_id", created.ID.String()).
		Str("listing_id", updated.ID.String()).
		Float64("amount", created.Amount).
		Msg("Bid placed")

	link := "/listings/" + updated.ID.String()
	s.announce(ctx, "user:"+updated.SellerID.String(), outbound.Notice{
		Kind:     outbound.NoticeNewOffer,
		Title:    "New offer received",
		Body:     fmt.Sprintf("%s offered %.2f for %q.", created.Bidder.Name, created.Amount, updated.Title),
		LinkPath: link,
	})
	if outbid != nil {
		s.announce(ctx, outbid.Bidder.NotifyKey(), outbound.Notice{
			Kind:     outbound.NoticeOutbid,
			Title:    "You have been outbid",
			Body:     fmt.Sprintf("Someone offered %.2f for %q, above your %.2f.", created.Amount, updated.Title, outbid.Amount),
			LinkPath: link,
		})
	}

	return created, nil
}

// AcceptBid accepts one bid, rejects every other pending bid and marks
// the listing sold, all in a single commit.
func (s *OfferService) AcceptBid(ctx context.Context, req inbound.AcceptBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Str("bid_id", req.BidID.String()).
		Str("actor_id", req.Actor.ID.String()).
		Msg("Attempting to accept bid")

	var accepted *bid.Bid
	updated, err := s.listings.UpdateListing(ctx, req.ListingID, func(l *listing.Listing) error {
		if err := authorizeSellerOrStaff(req.Actor, l); err != nil {
			return err
		}
		b, err := l.AcceptBid(req.BidID, s.clock())
		if err != nil {
			return err
		}
		accepted = b
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("bid_id", req.BidID.String()).Msg("Accept rejected")
		return nil, err
	}

	s.logger.Info().
		Str("bid_id", accepted.ID.String()).
		Str("listing_id", updated.ID.String()).
		Float64("price", updated.Price).
		Msg("Bid accepted, listing sold")

	s.announce(ctx, accepted.Bidder.NotifyKey(), outbound.Notice{
		Kind:     outbound.NoticeOfferAccepted,
		Title:    "Your offer was accepted",
		Body:     fmt.Sprintf("Your offer of %.2f for %q was accepted.", accepted.Amount, updated.Title),
		LinkPath: "/listings/" + updated.ID.String(),
	})

	return accepted, nil
}

// RejectBid rejects a single bid, leaving all others untouched.
func (s *OfferService) RejectBid(ctx context.Context, req inbound.RejectBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Str("bid_id", req.BidID.String()).
		Str("actor_id", req.Actor.ID.String()).
		Msg("Attempting to reject bid")

	var rejected *bid.Bid
	updated, err := s.listings.UpdateListing(ctx, req.ListingID, func(l *listing.Listing) error {
		if err := authorizeSellerOrStaff(req.Actor, l); err != nil {
			return err
		}
		b, err := l.RejectBid(req.BidID, s.clock())
		if err != nil {
			return err
		}
		rejected = b
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("bid_id", req.BidID.String()).Msg("Reject failed")
		return nil, err
	}

	s.logger.Info().Str("bid_id", rejected.ID.String()).Msg("Bid rejected")

	s.announce(ctx, rejected.Bidder.NotifyKey(), outbound.Notice{
		Kind:     outbound.NoticeOfferRejected,
		Title:    "Your offer was declined",
		Body:     fmt.Sprintf("Your offer of %.2f for %q was declined.", rejected.Amount, updated.Title),
		LinkPath: "/listings/" + updated.ID.String(),
	})

	return rejected, nil
}

// ResetOffers archives every pending and rejected bid. Only the seller
// may do this; staff roles are deliberately not honored here.
func (s *OfferService) ResetOffers(ctx context.Context, req inbound.ResetOffersRequest) error {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Str("actor_id", req.Actor.ID.String()).
		Msg("Attempting to reset offers")

	var cancelled []*bid.Bid
	updated, err := s.listings.UpdateListing(ctx, req.ListingID, func(l *listing.Listing) error {
		if req.Actor.ID != l.SellerID {
			return shared.ErrUnauthorized
		}
		cancelled = l.ArchiveOffers(s.clock())
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("listing_id", req.ListingID.String()).Msg("Reset rejected")
		return err
	}

	s.logger.Info().
		Str("listing_id", updated.ID.String()).
		Int("cancelled", len(cancelled)).
		Msg("Offers reset")

	for _, b := range cancelled {
		s.announce(ctx, b.Bidder.NotifyKey(), outbound.Notice{
			Kind:     outbound.NoticeOffersCancelled,
			Title:    "Your offer was cancelled",
			Body:     fmt.Sprintf("The seller withdrew all open offers on %q.", updated.Title),
			LinkPath: "/listings/" + updated.ID.String(),
		})
	}

	return nil
}

// ListingsWithPendingOffers returns the seller's active listings holding
// at least one pending bid.
func (s *OfferService) ListingsWithPendingOffers(ctx context.Context, actor *shared.Actor) ([]*listing.Listing, error) {
	return s.listings.ListWithPendingBids(ctx, actor.ID)
}

// GetListing retrieves a listing by ID.
func (s *OfferService) GetListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	return s.listings.GetByID(ctx, id)
}

// preflight validates the placement against a fresh snapshot and
// returns the identity the caller bids under. Guests must present a
// fresh code for their email; the challenge is consumed last, after
// every other check has passed, so a consumed challenge cannot
// authorize a second bid yet a doomed request leaves it intact. The
// listing state is re-validated inside the transaction.
func (s *OfferService) preflight(ctx context.Context, req inbound.PlaceBidRequest) (shared.BidderRef, error) {
	l, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return shared.BidderRef{}, err
	}
	if req.Amount <= 0 {
		s.logger.Warn().Float64("amount", req.Amount).Msg("Invalid bid amount (must be > 0)")
		return shared.BidderRef{}, shared.ErrInvalidAmount
	}

	var bidder shared.BidderRef
	if req.Actor != nil {
		bidder = req.Actor.Ref()
	} else {
		if req.GuestEmail == "" || req.GuestCode == "" {
			return shared.BidderRef{}, shared.ErrVerificationRequired
		}
		bidder = guestid.Resolve(req.GuestEmail)
	}
	if err := validatePlacement(l, bidder); err != nil {
		return shared.BidderRef{}, err
	}

	if req.Actor == nil {
		if err := s.verifier.SubmitCode(ctx, req.GuestEmail, req.GuestCode); err != nil {
			return shared.BidderRef{}, fmt.Errorf("%w: %v", shared.ErrVerificationRequired, err)
		}
	}
	return bidder, nil
}

// validatePlacement enforces the listing-state preconditions for a new
// bid: biddable, not sold, and not placed by the seller.
func validatePlacement(l *listing.Listing, bidder shared.BidderRef) error {
	if !l.CanBid() {
		if l.Status == listing.StatusSold {
			return shared.ErrListingAlreadySold
		}
		return shared.ErrListingNotBiddable
	}
	if bidder.IsSeller(l.SellerID) {
		return shared.ErrSelfBidNotAllowed
	}
	return nil
}

// authorizeSellerOrStaff allows the listing's seller and staff roles.
func authorizeSellerOrStaff(actor *shared.Actor, l *listing.Listing) error {
	if actor.ID == l.SellerID || actor.IsStaff() {
		return nil
	}
	return shared.ErrUnauthorized
}

// announce delivers a post-commit notice. Delivery is advisory: failures
// are logged and never change the outcome of the committed operation.
func (s *OfferService) announce(ctx context.Context, recipient string, n outbound.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, n); err != nil {
		s.logger.Error().
			Err(err).
			Str("recipient", recipient).
			Str("kind", string(n.Kind)).
			Msg("Failed to deliver notification")
	}
}
