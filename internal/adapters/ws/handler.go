package ws

import (
	"net/http"
	"sync"

	"skupply-market-service/internal/adapters/notifier"
	"skupply-market-service/internal/config"
	"skupply-market-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler upgrades authenticated connections and streams the caller's
// notification channel to them until they disconnect.
type WsHandler struct {
	clients   map[string]*WsClient // clientID -> Client
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
	notifier  *notifier.RedisNotifier
	identity  outbound.IdentityProvider
	logger    zerolog.Logger
}

type WsHandlerParams struct {
	Config   *config.Config
	Notifier *notifier.RedisNotifier
	Identity outbound.IdentityProvider
	Logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients: make(map[string]*WsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  params.Config.WebSocket.ReadBufferSize,
			WriteBufferSize: params.Config.WebSocket.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		notifier: params.Notifier,
		identity: params.Identity,
		logger:   params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleNotifications handles WebSocket connection upgrades for the
// notification stream. The caller authenticates with a token query
// parameter and receives only their own notices.
func (handler *WsHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	actor, err := handler.identity.Verify(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID: actor.ID,
		Conn:   conn,
		Logger: handler.logger,
	})

	handler.registerClient(client)
	client.Start()

	go handler.streamNotices(client, actor.Ref().NotifyKey())

	handler.logger.Info().
		Str("client_id", client.id).
		Str("user_id", actor.ID.String()).
		Msg("Notification stream opened")
}

// Stop closes every connected client.
func (handler *WsHandler) Stop() {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()

	for id, client := range handler.clients {
		client.Stop()
		delete(handler.clients, id)
	}
}

// streamNotices forwards the recipient's pub/sub channel to the client
// until either side goes away.
func (handler *WsHandler) streamNotices(client *WsClient, recipient string) {
	pubsub := handler.notifier.Subscribe(client.ctx, recipient)
	defer pubsub.Close()
	defer handler.unregisterClient(client)

	ch := pubsub.Channel()
	for {
		select {
		case <-client.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			envelope, err := notifier.DecodeEnvelope(msg.Payload)
			if err != nil {
				handler.logger.Error().Err(err).Msg("Dropping undecodable notice")
				continue
			}
			if err := client.Send(NewNoticeMessage(envelope.Notice)); err != nil {
				handler.logger.Warn().Err(err).Str("client_id", client.id).Msg("Failed to forward notice")
			}
		}
	}
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()

	if _, ok := handler.clients[client.id]; ok {
		client.Stop()
		delete(handler.clients, client.id)
	}
}
