package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogChannel writes messages to the application log instead of an external
// provider. Used in development and in environments without credentials.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel builds the channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Send logs the message and fabricates a provider id.
func (l *LogChannel) Send(_ context.Context, address, text string) (string, error) {
	id := uuid.NewString()
	l.logger.Info("outbound message",
		zap.String("address", address),
		zap.String("text", text),
		zap.String("provider_message_id", id),
	)
	return id, nil
}
