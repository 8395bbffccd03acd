package shared

import "errors"

// Domain-specific errors
var (
	// Listing errors
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingAlreadySold = errors.New("this item has already been sold")
	ErrListingNotBiddable = errors.New("listing is not accepting offers")

	// Bid errors
	ErrBidNotFound       = errors.New("bid not found")
	ErrBidNotPending     = errors.New("bid is no longer pending")
	ErrInvalidAmount     = errors.New("bid amount must be greater than 0")
	ErrSelfBidNotAllowed = errors.New("sellers cannot bid on their own listing")

	// Authorization errors
	ErrUnauthorized = errors.New("not authorized to perform this action")

	// Guest verification errors
	ErrVerificationRequired = errors.New("email verification required")
	ErrChallengeNotFound    = errors.New("no verification code found for this email")
	ErrChallengeExpired     = errors.New("verification code has expired")
	ErrChallengeAlreadyUsed = errors.New("verification code has already been used")
	ErrCodeMismatch         = errors.New("verification code does not match")

	// Email delivery errors
	ErrEmailServiceUnavailable = errors.New("email service unavailable")

	// Store errors
	ErrTransactionFailed = errors.New("listing update failed after retries")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
)
