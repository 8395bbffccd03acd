package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"skupply-market-service/internal/domain/shared"
)

// writeSuccess writes a {"success": true, ...} JSON response.
func writeSuccess(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error to an HTTP status and a message a
// client can show directly.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorStatus(err))
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   errorMessage(err),
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrListingNotFound),
		errors.Is(err, shared.ErrBidNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrVerificationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrListingAlreadySold),
		errors.Is(err, shared.ErrListingNotBiddable),
		errors.Is(err, shared.ErrBidNotPending),
		errors.Is(err, shared.ErrSelfBidNotAllowed),
		errors.Is(err, shared.ErrChallengeAlreadyUsed),
		errors.Is(err, shared.ErrChallengeExpired),
		errors.Is(err, shared.ErrCodeMismatch),
		errors.Is(err, shared.ErrChallengeNotFound):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrEmailServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns a short human-readable reason. Verification
// errors stay distinct from bid-validation errors so a guest knows
// which step to retry.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrListingNotFound):
		return "Listing not found."
	case errors.Is(err, shared.ErrBidNotFound):
		return "Bid not found."
	case errors.Is(err, shared.ErrListingAlreadySold):
		return "This item has already been sold."
	case errors.Is(err, shared.ErrListingNotBiddable):
		return "This listing is not accepting offers."
	case errors.Is(err, shared.ErrBidNotPending):
		return "This offer has already been resolved."
	case errors.Is(err, shared.ErrInvalidAmount):
		return "Offer amount must be greater than zero."
	case errors.Is(err, shared.ErrSelfBidNotAllowed):
		return "You cannot bid on your own listing."
	case errors.Is(err, shared.ErrUnauthorized):
		return "You are not allowed to perform this action."
	case errors.Is(err, shared.ErrChallengeNotFound):
		return "No verification code was requested for this email."
	case errors.Is(err, shared.ErrChallengeExpired):
		return "Your verification code has expired. Request a new one."
	case errors.Is(err, shared.ErrChallengeAlreadyUsed):
		return "This verification code was already used. Request a new one."
	case errors.Is(err, shared.ErrCodeMismatch):
		return "That verification code is not correct."
	case errors.Is(err, shared.ErrVerificationRequired):
		return "Please verify your email before bidding."
	case errors.Is(err, shared.ErrEmailServiceUnavailable):
		return "We could not send the verification email. Try again later."
	case errors.Is(err, shared.ErrInvalidRequest):
		return "Invalid request."
	default:
		return "Something went wrong. Please try again."
	}
}
