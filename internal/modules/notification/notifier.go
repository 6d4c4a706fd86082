package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status is the run outcome being announced.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Message is a single push to the operator.
type Message struct {
	Status Status
	Title  string
	Body   string
}

// Notifier delivers operator alerts.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ── Pushbullet ────────────────────────────────────────────────────────────────

const pushbulletURL = "https://api.pushbullet.com/v2/pushes"

type pushbullet struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewPushbullet sends notes through the Pushbullet API. An empty endpoint uses the public API.
func NewPushbullet(token, endpoint string) Notifier {
	if endpoint == "" {
		endpoint = pushbulletURL
	}
	return &pushbullet{endpoint: endpoint, token: token, client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *pushbullet) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"type":  "note",
		"title": msg.Title,
		"body":  msg.Body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Access-Token", p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send notification: http status %d", resp.StatusCode)
	}
	return nil
}

// ── Noop ──────────────────────────────────────────────────────────────────────

type noop struct{}

// NewNoop returns a Notifier that drops every message; used when no token is configured.
func NewNoop() Notifier { return noop{} }

func (noop) Send(context.Context, Message) error { return nil }
