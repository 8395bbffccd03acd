// Package httpapi exposes the offer negotiation operations over REST,
// plus the WebSocket notification stream and a health probe.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"skupply-market-service/internal/adapters/ws"
	"skupply-market-service/internal/config"
	"skupply-market-service/internal/ports/inbound"
	"skupply-market-service/internal/ports/outbound"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Server struct {
	handler    *Handler
	httpServer *http.Server
	config     *config.Config
	logger     zerolog.Logger
}

type ServerParams struct {
	Config       *config.Config
	Offers       inbound.OfferService
	Verification inbound.VerificationService
	Identity     outbound.IdentityProvider
	WsHandler    *ws.WsHandler
	Logger       zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	handler := NewHandler(HandlerParams{
		Offers:       params.Offers,
		Verification: params.Verification,
		Identity:     params.Identity,
		Logger:       params.Logger,
	})

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/verification/request", handler.RequestVerificationCode).Methods(http.MethodPost)
	api.HandleFunc("/verification/submit", handler.SubmitVerificationCode).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}", handler.GetListing).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}/bids", handler.PlaceBid).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/bids/{bidId}/accept", handler.AcceptBid).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/bids/{bidId}/reject", handler.RejectBid).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/offers/reset", handler.ResetOffers).Methods(http.MethodPost)
	api.HandleFunc("/seller/pending-offers", handler.ListingsWithPendingOffers).Methods(http.MethodGet)

	router.HandleFunc("/ws/notifications", params.WsHandler.HandleNotifications)
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", params.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Minute,
	}

	return &Server{
		handler:    handler,
		httpServer: httpServer,
		config:     params.Config,
		logger:     params.Logger.With().Str("component", "http_server").Logger(),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok", "service": "market-offers"}`))
}
