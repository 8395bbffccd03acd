package bid

import (
	"time"

	"skupply-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a bid. The only legal
// transitions are pending -> accepted, pending -> rejected and
// pending -> archived; the three terminal states never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Bid represents one monetary offer against a listing.
type Bid struct {
	ID     uuid.UUID        `json:"id"`
	Bidder shared.BidderRef `json:"bidder"`
	Amount float64          `json:"amount"`
	Status Status           `json:"status"`

	// PaymentToken is an opaque reference to an externally pre-authorized
	// payment instrument. It is stored and forwarded, never inspected.
	PaymentToken string `json:"payment_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a pending bid with a fresh id and server-assigned timestamp.
func New(bidder shared.BidderRef, amount float64, paymentToken string, now time.Time) *Bid {
	return &Bid{
		ID:           uuid.New(),
		Bidder:       bidder,
		Amount:       amount,
		Status:       StatusPending,
		PaymentToken: paymentToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsPending returns true if the bid has not reached a terminal state.
func (b *Bid) IsPending() bool {
	return b.Status == StatusPending
}

// Accept marks the bid as accepted.
func (b *Bid) Accept(now time.Time) {
	b.Status = StatusAccepted
	b.UpdatedAt = now
}

// Reject marks the bid as rejected.
func (b *Bid) Reject(now time.Time) {
	b.Status = StatusRejected
	b.UpdatedAt = now
}

// Archive marks the bid as archived.
func (b *Bid) Archive(now time.Time) {
	b.Status = StatusArchived
	b.UpdatedAt = now
}
