// Package notifier implements the notification dispatcher over Redis
// pub/sub. Delivery is best-effort: a notice published while nobody is
// subscribed is simply gone, which is the contract the state machine
// operates under.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skupply-market-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "notify:"

// Envelope is the wire form of one published notice.
type Envelope struct {
	Recipient string          `json:"recipient"`
	Notice    outbound.Notice `json:"notice"`
	SentAt    int64           `json:"sent_at"`
}

// RedisNotifier publishes notices to per-recipient Redis channels.
type RedisNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

type RedisNotifierParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewRedisNotifier creates a new Redis-backed notifier
func NewRedisNotifier(params RedisNotifierParams) *RedisNotifier {
	return &RedisNotifier{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "redis_notifier").Logger(),
	}
}

// Notify publishes a notice to the recipient's channel.
func (n *RedisNotifier) Notify(ctx context.Context, recipient string, notice outbound.Notice) error {
	envelope := Envelope{
		Recipient: recipient,
		Notice:    notice,
		SentAt:    time.Now().Unix(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}

	if err := n.client.Publish(ctx, channelPrefix+recipient, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}

	n.logger.Debug().
		Str("recipient", recipient).
		Str("kind", string(notice.Kind)).
		Msg("Notice published")
	return nil
}

// Subscribe opens a pub/sub subscription for the recipient's channel.
// The caller owns the returned subscription and must close it.
func (n *RedisNotifier) Subscribe(ctx context.Context, recipient string) *redis.PubSub {
	return n.client.Subscribe(ctx, channelPrefix+recipient)
}

// DecodeEnvelope parses a published notice payload.
func DecodeEnvelope(payload string) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode notice: %w", err)
	}
	return &envelope, nil
}
