package notify

import (
	"context"
	"errors"
	"strconv"

	pubnub "github.com/pubnub/go/v7"

	"github.com/ticketero/queue-service/internal/config"
)

// PubNubChannel publishes messages on a per-client PubNub channel. Clients
// subscribe to "user-<phone>" from the branch kiosk frontend.
type PubNubChannel struct {
	pn *pubnub.PubNub
}

// NewPubNubChannel builds the channel from config.
func NewPubNubChannel(cfg config.NotifyConfig) (*PubNubChannel, error) {
	if cfg.PubNubPubKey == "" || cfg.PubNubSubKey == "" {
		return nil, errors.New("pubnub publish and subscribe keys are required")
	}
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnCfg.PublishKey = cfg.PubNubPubKey
	pnCfg.SubscribeKey = cfg.PubNubSubKey
	if cfg.SendTimeout > 0 {
		pnCfg.NonSubscribeRequestTimeout = int(cfg.SendTimeout.Seconds())
	}
	return &PubNubChannel{pn: pubnub.NewPubNub(pnCfg)}, nil
}

// Send publishes the text to the client's channel. The publish timetoken
// doubles as the provider message id.
func (p *PubNubChannel) Send(ctx context.Context, address, text string) (string, error) {
	res, _, err := p.pn.PublishWithContext(ctx).
		Channel("user-" + address).
		Message(map[string]interface{}{
			"type": "queue_notification",
			"text": text,
		}).
		Execute()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(res.Timestamp, 10), nil
}
