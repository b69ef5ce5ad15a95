package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pokecloud/trade-server/internal/logger"
)

// Gateway posts trade announcements to a Discord webhook. It is a
// best-effort side channel: every path returns a (possibly empty) message id
// and never an error, so a webhook outage can't fail a trade.
type Gateway struct {
	webhookURL string
	client     httpDoer
	sleep      func(time.Duration)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	maxAttempts = 3
	retryDelay  = time.Second
)

// NewGateway creates a webhook gateway. An empty URL disables the gateway;
// its methods become no-ops returning an empty handle.
func NewGateway(webhookURL string) *Gateway {
	return &Gateway{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		sleep:      time.Sleep,
	}
}

// Enabled reports whether a webhook target is configured.
func (g *Gateway) Enabled() bool {
	return g != nil && g.webhookURL != ""
}

type webhookMessage struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title string `json:"title"`
	Color int    `json:"color"`
}

// SendOrUpdate announces a trade state change. With a message id it edits
// the previous announcement in place, falling back to sending a new message
// only if every edit attempt fails. Each phase is tried up to three times
// with a fixed delay; total failure returns "" without error.
func (g *Gateway) SendOrUpdate(title string, color int, messageID string) string {
	if !g.Enabled() {
		return ""
	}

	body, err := json.Marshal(webhookMessage{
		Username: "Unbound Cloud",
		Embeds:   []webhookEmbed{{Title: title, Color: color}},
	})
	if err != nil {
		logger.Errorf("Failed to encode webhook message: %v", err)
		return ""
	}

	if messageID != "" {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if attempt > 0 {
				g.sleep(retryDelay)
			}
			if err := g.editMessage(messageID, body); err != nil {
				logger.Errorf("An error occurred editing the last trade webhook message: %v", err)
				continue
			}
			return messageID
		}
		// Fall through and post a fresh message instead.
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			g.sleep(retryDelay)
		}
		id, err := g.sendMessage(body)
		if err != nil {
			logger.Errorf("An error occurred sending the trade webhook message: %v", err)
			continue
		}
		return id
	}

	return ""
}

func (g *Gateway) sendMessage(body []byte) (string, error) {
	// wait=true makes Discord return the created message so we can keep
	// its id for later edits.
	req, err := http.NewRequest(http.MethodPost, g.webhookURL+"?wait=true", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook send returned status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode webhook response: %w", err)
	}
	return created.ID, nil
}

func (g *Gateway) editMessage(messageID string, body []byte) error {
	url := fmt.Sprintf("%s/messages/%s", g.webhookURL, messageID)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook edit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("edit webhook message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook edit returned status %d", resp.StatusCode)
	}
	return nil
}
