package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ticketero/queue-service/internal/config"
)

// TelegramChannel delivers messages through the Telegram Bot API.
type TelegramChannel struct {
	apiURL string
	token  string
	client *http.Client
}

// NewTelegramChannel builds the channel from config.
func NewTelegramChannel(cfg config.NotifyConfig) *TelegramChannel {
	return &TelegramChannel{
		apiURL: cfg.TelegramAPIURL,
		token:  cfg.TelegramToken,
		client: &http.Client{Timeout: cfg.SendTimeout},
	}
}

type telegramRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts a sendMessage call. The context deadline bounds the request;
// a timeout surfaces as an error and is retried by the delivery queue.
func (t *TelegramChannel) Send(ctx context.Context, address, text string) (string, error) {
	body, err := json.Marshal(telegramRequest{ChatID: address, Text: text})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.OK {
		return "", fmt.Errorf("telegram send failed: %s", parsed.Description)
	}
	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}
