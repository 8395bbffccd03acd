package listing

import (
	"time"

	"skupply-market-service/internal/domain/bid"
	"skupply-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// Status represents the sale state of a listing
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// Listing represents an item for sale together with its embedded bid
// list. The whole aggregate is mutated as one unit inside a repository
// transaction; bids appear in commit order.
type Listing struct {
	ID             uuid.UUID  `json:"id"`
	SellerID       uuid.UUID  `json:"seller_id"`
	Title          string     `json:"title"`
	Price          float64    `json:"price"`
	BiddingEnabled bool       `json:"bidding_enabled"`
	Status         Status     `json:"status"`
	Bids           []*bid.Bid `json:"bids"`
	AcceptedBidID  *uuid.UUID `json:"accepted_bid_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SoldAt         *time.Time `json:"sold_at,omitempty"`
}

// CanBid returns true if the listing accepts new offers.
func (l *Listing) CanBid() bool {
	return l.BiddingEnabled && l.Status != StatusSold
}

// FindBid returns the bid with the given id, or nil.
func (l *Listing) FindBid(id uuid.UUID) *bid.Bid {
	for _, b := range l.Bids {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// HasPendingBids returns true if at least one bid is still pending.
func (l *Listing) HasPendingBids() bool {
	for _, b := range l.Bids {
		if b.IsPending() {
			return true
		}
	}
	return false
}

// HighestPendingUnder returns the pending bid with the largest amount
// strictly below the given amount, excluding bids by the given bidder.
// Used to target the outbid notification; ties and self-raises yield nil.
func (l *Listing) HighestPendingUnder(amount float64, bidder shared.BidderRef) *bid.Bid {
	var best *bid.Bid
	for _, b := range l.Bids {
		if !b.IsPending() || b.Amount >= amount || b.Bidder.Same(bidder) {
			continue
		}
		if best == nil || b.Amount > best.Amount {
			best = b
		}
	}
	return best
}

// PlaceBid appends a new bid to the aggregate.
func (l *Listing) PlaceBid(b *bid.Bid) {
	l.Bids = append(l.Bids, b)
	l.UpdatedAt = b.CreatedAt
}

// AcceptBid accepts the target bid and rejects every other pending bid
// in the same mutation: the listing becomes sold at the accepted amount.
func (l *Listing) AcceptBid(bidID uuid.UUID, now time.Time) (*bid.Bid, error) {
	target := l.FindBid(bidID)
	if target == nil {
		return nil, shared.ErrBidNotFound
	}
	if !target.IsPending() {
		return nil, shared.ErrBidNotPending
	}

	target.Accept(now)
	for _, b := range l.Bids {
		if b != target && b.IsPending() {
			b.Reject(now)
		}
	}

	accepted := target.ID
	l.AcceptedBidID = &accepted
	l.Price = target.Amount
	l.Status = StatusSold
	l.SoldAt = &now
	l.UpdatedAt = now
	return target, nil
}

// RejectBid rejects a single pending bid, leaving all others untouched.
func (l *Listing) RejectBid(bidID uuid.UUID, now time.Time) (*bid.Bid, error) {
	target := l.FindBid(bidID)
	if target == nil {
		return nil, shared.ErrBidNotFound
	}
	if !target.IsPending() {
		return nil, shared.ErrBidNotPending
	}
	target.Reject(now)
	l.UpdatedAt = now
	return target, nil
}

// ArchiveOffers archives every pending and rejected bid and returns the
// bids that were still pending beforehand, so their bidders can be told
// their offer was cancelled. Accepted bids are left untouched.
func (l *Listing) ArchiveOffers(now time.Time) []*bid.Bid {
	var cancelled []*bid.Bid
	for _, b := range l.Bids {
		switch b.Status {
		case bid.StatusPending:
			cancelled = append(cancelled, b)
			b.Archive(now)
		case bid.StatusRejected:
			b.Archive(now)
		}
	}
	if len(cancelled) > 0 {
		l.UpdatedAt = now
	}
	return cancelled
}

// Clone returns a deep copy of the listing, including its bid list.
func (l *Listing) Clone() *Listing {
	dup := *l
	if l.AcceptedBidID != nil {
		id := *l.AcceptedBidID
		dup.AcceptedBidID = &id
	}
	if l.SoldAt != nil {
		t := *l.SoldAt
		dup.SoldAt = &t
	}
	dup.Bids = make([]*bid.Bid, len(l.Bids))
	for i, b := range l.Bids {
		copied := *b
		dup.Bids[i] = &copied
	}
	return &dup
}
