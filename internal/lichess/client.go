// Package lichess sends inbox messages through the lichess API.
package lichess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/notifier"
)

const DefaultBaseURL = "https://lichess.org"

// Client is a mail-only notifier.Sender.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a lichess client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ notifier.Sender = (*Client)(nil)

// SendExternalMail posts the message to the player's lichess inbox.
// Lichess messages have no subject, so it is sent as the first line.
func (c *Client) SendExternalMail(ctx context.Context, to notifier.Recipient, subject, body string) error {
	if to.Handle == "" || to.Handle == "?" {
		return fmt.Errorf("cannot mail unknown player")
	}
	form := url.Values{}
	form.Set("text", subject+"\n\n"+body)

	endpoint := fmt.Sprintf("%s/inbox/%s", c.baseURL, url.PathEscape(string(to.Handle)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build lichess request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send lichess mail to %s: %w", to.Handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("lichess mail to %s rejected: status %d: %s", to.Handle, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	log.Info("Successfully sent lichess mail", "user", to.Handle)
	return nil
}

func (c *Client) SendDirectMessage(ctx context.Context, to notifier.Recipient, text string) error {
	return fmt.Errorf("lichess client only sends mail")
}

func (c *Client) SendGroupMessage(ctx context.Context, to []notifier.Recipient, text string) error {
	return fmt.Errorf("lichess client only sends mail")
}

func (c *Client) SendChannelMessage(ctx context.Context, channel, text string) error {
	return fmt.Errorf("lichess client only sends mail")
}
