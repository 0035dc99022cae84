// Package monitor posts human-readable activity lines to the external
// monitoring collaborator. Delivery is best-effort: failures are logged and
// swallowed, they must never fail the calling workflow.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type logMessage struct {
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Client posts to the monitor endpoint. A nil Client or an empty base URL
// disables notifications entirely.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Second},
	}
}

// Notify sends one activity line. typ is one of "success", "info", "warning",
// "error".
func (c *Client) Notify(ctx context.Context, source, message, typ string) {
	if c == nil || c.baseURL == "" {
		return
	}

	body, err := json.Marshal(logMessage{
		Source:    source,
		Message:   message,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/monitor/send", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "monitor notification dropped", "source", source, "error", err)
		return
	}
	_ = resp.Body.Close()
}
