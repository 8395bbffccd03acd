package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/ports/inbound"
	"skupply-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handler implements the REST surface of the offer engine.
type Handler struct {
	offers       inbound.OfferService
	verification inbound.VerificationService
	identity     outbound.IdentityProvider
	logger       zerolog.Logger
}

type HandlerParams struct {
	Offers       inbound.OfferService
	Verification inbound.VerificationService
	Identity     outbound.IdentityProvider
	Logger       zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		offers:       params.Offers,
		verification: params.Verification,
		identity:     params.Identity,
		logger:       params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

type verificationRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

type placeBidRequest struct {
	Amount       float64 `json:"amount"`
	GuestEmail   string  `json:"guest_email,omitempty"`
	GuestCode    string  `json:"guest_code,omitempty"`
	PaymentToken string  `json:"payment_token,omitempty"`
}

// RequestVerificationCode handles POST /api/verification/request
func (h *Handler) RequestVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrInvalidRequest)
		return
	}

	if err := h.verification.RequestCode(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"message": "Verification code sent."})
}

// SubmitVerificationCode handles POST /api/verification/submit
func (h *Handler) SubmitVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrInvalidRequest)
		return
	}

	if err := h.verification.SubmitCode(r.Context(), req.Email, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"message": "Email verified."})
}

// PlaceBid handles POST /api/listings/{id}/bids. Authenticated callers
// present a bearer token; guests supply a verified email and code.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrInvalidRequest)
		return
	}

	actor, err := h.optionalActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	placed, err := h.offers.PlaceBid(r.Context(), inbound.PlaceBidRequest{
		ListingID:    listingID,
		Amount:       req.Amount,
		Actor:        actor,
		GuestEmail:   req.GuestEmail,
		GuestCode:    req.GuestCode,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"bid": placed})
}

// AcceptBid handles POST /api/listings/{id}/bids/{bidId}/accept
func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}

	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	accepted, err := h.offers.AcceptBid(r.Context(), inbound.AcceptBidRequest{
		ListingID: listingID,
		BidID:     bidID,
		Actor:     actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{
		"message": "Offer accepted. The listing is now sold.",
		"bid":     accepted,
	})
}

// RejectBid handles POST /api/listings/{id}/bids/{bidId}/reject
func (h *Handler) RejectBid(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}

	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rejected, err := h.offers.RejectBid(r.Context(), inbound.RejectBidRequest{
		ListingID: listingID,
		BidID:     bidID,
		Actor:     actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{
		"message": "Offer declined.",
		"bid":     rejected,
	})
}

// ResetOffers handles POST /api/listings/{id}/offers/reset
func (h *Handler) ResetOffers(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.offers.ResetOffers(r.Context(), inbound.ResetOffersRequest{
		ListingID: listingID,
		Actor:     actor,
	}); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"message": "All open offers were cancelled."})
}

// ListingsWithPendingOffers handles GET /api/seller/pending-offers
func (h *Handler) ListingsWithPendingOffers(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireActor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listings, err := h.offers.ListingsWithPendingOffers(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"listings": listings})
}

// GetListing handles GET /api/listings/{id}
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	l, err := h.offers.GetListing(r.Context(), listingID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]any{"listing": l})
}

// requireActor resolves the bearer token, failing without one.
func (h *Handler) requireActor(r *http.Request) (*shared.Actor, error) {
	actor, err := h.optionalActor(r)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	return actor, nil
}

// optionalActor resolves the bearer token if present; callers without
// one proceed as guests.
func (h *Handler) optionalActor(r *http.Request) (*shared.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return nil, shared.ErrUnauthorized
	}
	return h.identity.Verify(r.Context(), token)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, shared.ErrInvalidRequest)
		return uuid.Nil, false
	}
	return id, true
}
