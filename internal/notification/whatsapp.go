package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"opsledger.io/opsledger/internal/config"
)

// WhatsAppSender triggers an external messaging automation over HTTP.
// The automation owns phone-number resolution; we post recipient
// member IDs and rendered text. Only invoked from queue workers.
type WhatsAppSender struct {
	client   *http.Client
	endpoint string
	token    string
}

// NewWhatsAppSender creates a WhatsApp trigger client from
// configuration.
func NewWhatsAppSender(cfg config.WhatsAppConfig) *WhatsAppSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppSender{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
	}
}

type whatsAppPayload struct {
	RecipientIDs []string `json:"recipient_ids"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
}

// Trigger posts one notification event to the messaging automation.
func (s *WhatsAppSender) Trigger(ctx context.Context, recipientIDs []string, title, message string) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	body, err := json.Marshal(whatsAppPayload{
		RecipientIDs: recipientIDs,
		Title:        title,
		Message:      message,
	})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger whatsapp automation: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp automation returned status %d", resp.StatusCode)
	}
	return nil
}
