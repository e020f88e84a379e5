package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/slack-go/slack"
)

const sendTimeout = 10 * time.Second

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
}

// Notifier sends chat deliveries to Slack. Mail is not supported.
type Notifier struct {
	api slackClient
}

// NewNotifier creates a new Notifier.
func NewNotifier(token string) *Notifier {
	return &Notifier{api: slack.New(token)}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient) *Notifier {
	return &Notifier{api: api}
}

// address returns the channel to post to for a direct message.
// Players without a known Slack ID are addressed by handle.
func address(r notifier.Recipient) string {
	if r.SlackUserID != "" {
		return r.SlackUserID
	}
	return "@" + string(r.Handle)
}

func (s *Notifier) post(ctx context.Context, channel, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return "", fmt.Errorf("failed to post message to %s: %w", channel, err)
	}
	log.Debug("Posted Slack message", "channel", channelID, "timestamp", timestamp)
	return timestamp, nil
}

// SendDirectMessage sends a direct message to a user.
func (s *Notifier) SendDirectMessage(ctx context.Context, to notifier.Recipient, text string) error {
	// In Slack, you can send DMs by using the user ID as the channel
	_, err := s.post(ctx, address(to), text)
	if err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", to.Handle, err)
	}
	log.Info("Successfully sent Slack DM", "user", to.Handle)
	return nil
}

// SendGroupMessage opens a multi-party conversation with all recipients and posts into it.
func (s *Notifier) SendGroupMessage(ctx context.Context, to []notifier.Recipient, text string) error {
	users := make([]string, 0, len(to))
	for _, r := range to {
		if r.SlackUserID == "" {
			return fmt.Errorf("cannot open group conversation: %s has no linked Slack account", r.Handle)
		}
		users = append(users, r.SlackUserID)
	}

	openCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	channel, _, _, err := s.api.OpenConversationContext(openCtx, &slack.OpenConversationParameters{Users: users})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open group conversation: %w", err)
	}

	if _, err := s.post(ctx, channel.ID, text); err != nil {
		return err
	}
	log.Info("Successfully sent Slack group message", "channel", channel.ID, "users", len(users))
	return nil
}

// SendChannelMessage posts to a league channel.
func (s *Notifier) SendChannelMessage(ctx context.Context, channel, text string) error {
	if _, err := s.post(ctx, channel, text); err != nil {
		return err
	}
	log.Info("Successfully sent Slack channel message", "channel", channel)
	return nil
}

// SendExternalMail is not a Slack capability.
func (s *Notifier) SendExternalMail(ctx context.Context, to notifier.Recipient, subject, body string) error {
	return fmt.Errorf("slack notifier cannot send external mail to %s", to.Handle)
}

var _ notifier.Sender = (*Notifier)(nil)
