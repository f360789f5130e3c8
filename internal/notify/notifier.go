// Package notify defines the delivery boundary for customer messages. The core
// only produces message content and a channel hint; transports live behind the
// Notifier interface.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Channel hints which transport should carry a message. Actual routing is the
// transport adapter's concern.
const (
	ChannelPush     = "push"
	ChannelWebchat  = "webchat"
	ChannelWhatsApp = "whatsapp"
)

// Notifier delivers a formatted message to a customer. Implementations report
// success; the caller logs failures and never retries here.
type Notifier interface {
	Send(ctx context.Context, customerID, channel, message string) bool
}

// LogNotifier writes messages to the structured log. Used in development and
// as a fallback when no transport is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates the notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send implements Notifier.
func (n *LogNotifier) Send(ctx context.Context, customerID, channel, message string) bool {
	n.logger.Info("notification",
		zap.String("customer_id", customerID),
		zap.String("channel", channel),
		zap.String("message", message))
	return true
}
