// Package notifier delivers digests to a Microsoft Teams channel.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"SSPCommandCenter/internal/logger"
)

// ErrNotConfigured is returned by Send when no webhook URL is set.
var ErrNotConfigured = errors.New("teams webhook not configured")

const themeColor = "0072C6"

// messageCard is the legacy Office 365 connector card accepted by incoming webhooks.
type messageCard struct {
	Type       string `json:"@type"`
	Context    string `json:"@context"`
	Summary    string `json:"summary"`
	ThemeColor string `json:"themeColor"`
	Title      string `json:"title"`
	Text       string `json:"text"`
}

// TeamsNotifier posts messages to a Teams incoming webhook.
type TeamsNotifier struct {
	WebhookURL string
	Client     *http.Client
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
	log     logger.Logger
}

// NewTeamsNotifier creates a notifier with optional proxy support.
func NewTeamsNotifier(webhookURL, proxyURL string, log logger.Logger) *TeamsNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TeamsNotifier{
		WebhookURL: webhookURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Backoff: time.Second,
		log:     log,
	}
}

// Enabled reports whether a webhook is configured. Without one, digests are skipped.
func (t *TeamsNotifier) Enabled() bool {
	return t.WebhookURL != ""
}

// Send posts one message card.
func (t *TeamsNotifier) Send(ctx context.Context, title, text string) error {
	if !t.Enabled() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(messageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    title,
		ThemeColor: themeColor,
		Title:      title,
		Text:       text,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("teams webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TeamsNotifier) SendWithRetry(ctx context.Context, title, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, title, text)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotConfigured) {
			return err
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.Backoff << uint(i)
		t.log.Warn("teams send failed, retrying",
			logger.Int("attempt", i+1),
			logger.Int("max_attempts", maxRetries+1),
			logger.Duration("backoff", backoff),
			logger.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
