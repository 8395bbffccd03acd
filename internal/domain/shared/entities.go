package shared

import (
	"github.com/google/uuid"
)

// Role is the privilege level of an authenticated account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Actor is the resolved identity of an authenticated caller, as returned
// by the identity provider for a verified token.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// Ref returns the bidder identity this actor bids under.
func (a *Actor) Ref() BidderRef {
	return RegisteredBidder(a.ID, a.Name)
}

// IsStaff reports whether the actor holds a staff role.
func (a *Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}
