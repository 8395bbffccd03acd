package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skupply-market-service/internal/config"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsClient is one connected notification stream consumer.
type WsClient struct {
	id         string
	userID     uuid.UUID
	conn       *websocket.Conn
	sendChan   chan *ServerMessage
	ctx        context.Context
	cancel     context.CancelFunc
	workerPool *pond.WorkerPool
	stopped    bool
	mu         sync.Mutex
	logger     zerolog.Logger
}

type WsClientParams struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Logger zerolog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(params WsClientParams) *WsClient {
	ctx, cancel := context.WithCancel(context.Background())

	pool := pond.New(
		config.WSMaxWorkers,
		config.WSMaxCapacity,
		pond.Context(ctx),
		pond.Strategy(pond.Balanced()),
	)
	clientID := uuid.New().String()
	client := &WsClient{
		id:         clientID,
		userID:     params.UserID,
		conn:       params.Conn,
		sendChan:   make(chan *ServerMessage, 100), // Buffered channel to handle notice bursts
		ctx:        ctx,
		cancel:     cancel,
		workerPool: pool,
		logger: params.Logger.With().
			Str("client_id", clientID).
			Str("user_id", params.UserID.String()).
			Logger(),
	}

	return client
}

func (client *WsClient) Start() {
	go client.messageSender()
	go client.messageReceiver()
}

func (client *WsClient) Stop() {
	client.mu.Lock()
	defer client.mu.Unlock()

	// Prevent double closing
	if client.stopped {
		return
	}
	client.stopped = true

	client.cancel()
	client.conn.Close()

	// sendChan is never closed: messageSender exits on ctx cancel, and
	// leaving it open lets a racing Send fail cleanly instead of panic.
	if client.workerPool != nil {
		client.workerPool.Stop()
	}
}

// Done reports when the connection has gone away.
func (client *WsClient) Done() <-chan struct{} {
	return client.ctx.Done()
}

// Send queues a message for delivery to the client
func (client *WsClient) Send(msg *ServerMessage) error {
	client.mu.Lock()
	if client.stopped {
		client.mu.Unlock()
		return fmt.Errorf("client is stopped")
	}
	client.mu.Unlock()

	select {
	case client.sendChan <- msg:
		return nil
	case <-client.ctx.Done():
		return fmt.Errorf("client is stopped")
	default:
		// Channel is full, try to send with a timeout
		select {
		case client.sendChan <- msg:
			return nil
		case <-client.ctx.Done():
			return fmt.Errorf("client is stopped")
		case <-time.After(100 * time.Millisecond):
			return fmt.Errorf("client send channel is full")
		}
	}
}

func (client *WsClient) messageSender() {
	for {
		select {
		case msg := <-client.sendChan:
			if err := client.sendMessage(msg); err != nil {
				client.logger.Error().Err(err).Msg("Failed to send message to client")
				return
			}
		case <-client.ctx.Done():
			return
		}
	}
}

func (client *WsClient) messageReceiver() {
	for {
		select {
		case <-client.ctx.Done():
			return
		default:
			_, message, err := client.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					client.logger.Error().Err(err).Msg("WebSocket read error for client")
				} else {
					client.logger.Info().Str("error", err.Error()).Msg("WebSocket connection closed for client")
				}
				// Cancel context to notify handler about disconnection
				client.cancel()
				return
			}

			client.workerPool.Submit(func() {
				if err := client.handleMessage(message); err != nil {
					client.logger.Error().Err(err).Msg("Failed to handle message in worker pool")
					errorMsg := NewErrorMessage(err.Error())
					client.sendMessage(errorMsg)
				}
			})
		}
	}
}

func (client *WsClient) sendMessage(msg *ServerMessage) error {
	return client.conn.WriteJSON(msg)
}

func (client *WsClient) handleMessage(data []byte) error {
	msg, err := ParseClientMessage(data)
	if err != nil {
		return fmt.Errorf("invalid message format: %w", err)
	}

	if err := msg.Validate(); err != nil {
		return fmt.Errorf("message validation failed: %w", err)
	}

	// Ping is the only inbound message on the notification stream
	return client.Send(NewServerMessage(MessageTypePong))
}
