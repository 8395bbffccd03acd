package shared

import "github.com/google/uuid"

// IdentityKind discriminates the two bidder identity variants.
type IdentityKind string

const (
	IdentityRegistered IdentityKind = "registered"
	IdentityGuest      IdentityKind = "guest"
)

// BidderRef identifies the party behind a bid. It is a tagged union:
// registered bidders carry an account id, guests carry a pseudo-identity
// derived from their verified email. Code that needs to compare or route
// bidders switches on Kind instead of parsing identifier strings.
type BidderRef struct {
	Kind      IdentityKind `json:"kind"`
	UserID    uuid.UUID    `json:"user_id,omitempty"`
	EmailHash string       `json:"email_hash,omitempty"`
	Name      string       `json:"name"`
}

// RegisteredBidder builds the identity of an authenticated account.
func RegisteredBidder(id uuid.UUID, name string) BidderRef {
	return BidderRef{Kind: IdentityRegistered, UserID: id, Name: name}
}

// GuestBidder builds the pseudo-identity of an email-verified guest.
func GuestBidder(emailHash, name string) BidderRef {
	return BidderRef{Kind: IdentityGuest, EmailHash: emailHash, Name: name}
}

// Same reports whether two refs identify the same party.
func (r BidderRef) Same(other BidderRef) bool {
	if r.Kind != other.Kind {
		return false
	}
	if r.Kind == IdentityGuest {
		return r.EmailHash == other.EmailHash
	}
	return r.UserID == other.UserID
}

// IsSeller reports whether this bidder is the given seller account.
// Guests never match: a seller is always a registered account.
func (r BidderRef) IsSeller(sellerID uuid.UUID) bool {
	return r.Kind == IdentityRegistered && r.UserID == sellerID
}

// NotifyKey is the routing key the notification dispatcher addresses
// this bidder by.
func (r BidderRef) NotifyKey() string {
	if r.Kind == IdentityGuest {
		return "guest:" + r.EmailHash
	}
	return "user:" + r.UserID.String()
}
