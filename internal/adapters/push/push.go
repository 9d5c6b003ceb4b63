// Package push delivers push notifications to client devices.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// WebhookSender posts notifications to a push gateway (FCM proxy or
// similar). The gateway handles per-platform delivery.
type WebhookSender struct {
	endpoint string
	client   *http.Client
}

// NewWebhookSender creates a sender targeting the given gateway URL.
func NewWebhookSender(endpoint string) *WebhookSender {
	return &WebhookSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendPush delivers one notification to a device.
func (s *WebhookSender) SendPush(ctx context.Context, deviceID, title, body string) error {
	payload, err := json.Marshal(map[string]string{
		"device_id": deviceID,
		"title":     title,
		"body":      body,
	})
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}

// LogSender logs notifications instead of delivering them. Used in
// development and when no gateway is configured.
type LogSender struct{}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// SendPush logs the notification.
func (s *LogSender) SendPush(ctx context.Context, deviceID, title, body string) error {
	slog.Info("push (log only)", "device", deviceID, "title", title, "body", body)
	return nil
}
