package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/ports/outbound"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypePing MessageType = "ping"

	// Server to Client message types
	MessageTypeNotice MessageType = "notice"
	MessageTypeError  MessageType = "error"
	MessageTypePong   MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType      `json:"type"`
	Notice    *outbound.Notice `json:"notice,omitempty"`
	Error     *string          `json:"error,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
	}
}

// NewNoticeMessage wraps a dispatched notice for delivery to the client
func NewNoticeMessage(notice outbound.Notice) *ServerMessage {
	msg := NewServerMessage(MessageTypeNotice)
	msg.Notice = &notice
	return msg
}

func NewErrorMessage(err string) *ServerMessage {
	return &ServerMessage{
		Type:      MessageTypeError,
		Error:     &err,
		Timestamp: time.Now().Unix(),
	}
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrInvalidRequest
	}

	return &msg, nil
}

// Validate validates a client message. The notification stream is
// one-way; ping is the only message a client may send.
func (m *ClientMessage) Validate() error {
	if m.Type != MessageTypePing {
		return shared.ErrInvalidRequest
	}
	return nil
}
