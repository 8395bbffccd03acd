// Package guestid derives stable pseudo-identities for guest bidders.
// The mapping is pure: the same email always resolves to the same
// identity, so a returning guest is recognized without a stored account.
package guestid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"skupply-market-service/internal/domain/shared"
)

// Resolve maps a verified email to a guest bidder identity. The display
// name is derived from the local part of the address.
func Resolve(email string) shared.BidderRef {
	norm := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(norm))
	hash := hex.EncodeToString(sum[:])

	name := norm
	if at := strings.Index(norm, "@"); at > 0 {
		name = norm[:at]
	}
	if name == "" {
		name = "guest"
	}
	return shared.GuestBidder(hash, name)
}
