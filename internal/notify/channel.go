package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/config"
)

// Channel is the outbound messaging transport. Implementations must
// respect context deadlines; the delivery queue treats a timeout like any
// other transient failure.
type Channel interface {
	Send(ctx context.Context, address, text string) (providerMessageID string, err error)
}

// NewChannel builds the configured channel implementation.
func NewChannel(cfg config.NotifyConfig, logger *zap.Logger) (Channel, error) {
	switch cfg.Provider {
	case "telegram":
		return NewTelegramChannel(cfg), nil
	case "pubnub":
		return NewPubNubChannel(cfg)
	case "log":
		return NewLogChannel(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Provider)
	}
}
