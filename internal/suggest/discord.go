package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoWebhook is returned when no Discord webhook URL is configured.
var ErrNoWebhook = errors.New("discord webhook URL not configured")

// EmbedColor is the blue used for suggestion embeds.
const EmbedColor = 0x4a90e2

// Embed is a single Discord message embed.
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type webhookRequest struct {
	Embeds []Embed `json:"embeds"`
}

// Discord posts embeds to a Discord webhook.
type Discord struct {
	url    string
	client *http.Client
}

// NewDiscord creates a webhook client. An empty url is allowed; Send then
// fails with ErrNoWebhook.
func NewDiscord(url string) *Discord {
	return &Discord{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a webhook URL is set.
func (d *Discord) Configured() bool {
	return d != nil && d.url != ""
}

// Send posts embeds as one webhook message.
func (d *Discord) Send(ctx context.Context, embeds ...Embed) error {
	if !d.Configured() {
		return ErrNoWebhook
	}

	body, err := json.Marshal(webhookRequest{Embeds: embeds})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord answers 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("discord webhook error: %s", resp.Status)
	}
	return nil
}
