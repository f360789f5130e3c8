package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/waitline/internal/persistence"
)

// RedisNotifier publishes messages onto per-customer pub/sub channels. The
// webchat/push gateways subscribe to these channels and own actual delivery.
type RedisNotifier struct {
	redis  *persistence.Redis
	logger *zap.Logger
}

// NewRedisNotifier creates the notifier.
func NewRedisNotifier(redis *persistence.Redis, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{redis: redis, logger: logger}
}

type customerMessage struct {
	CustomerID string    `json:"customer_id"`
	Channel    string    `json:"channel"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

// Send implements Notifier.
func (n *RedisNotifier) Send(ctx context.Context, customerID, channel, message string) bool {
	payload, err := json.Marshal(customerMessage{
		CustomerID: customerID,
		Channel:    channel,
		Message:    message,
		SentAt:     time.Now(),
	})
	if err != nil {
		n.logger.Error("marshal notification", zap.Error(err))
		return false
	}
	if err := n.redis.Publish(ctx, "notify:"+customerID, payload); err != nil {
		n.logger.Warn("publish notification",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return false
	}
	return true
}
