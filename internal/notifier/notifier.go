package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/mauv0809/league-notifier/internal/league"
)

// Channel is the transport a delivery goes out on.
type Channel string

const (
	ChannelIM   Channel = "im"
	ChannelMPIM Channel = "mpim"
	ChannelMail Channel = "mail"
	ChannelPost Channel = "channel"
)

// Recipient addresses one player on the chat and mail transports.
type Recipient struct {
	Handle      league.DisplayHandle `json:"handle"`
	SlackUserID string               `json:"slack_user_id,omitempty"`
}

// RecipientOf builds the recipient for a player.
func RecipientOf(p *league.Player) Recipient {
	if p == nil {
		return Recipient{Handle: league.UnknownHandle}
	}
	return Recipient{Handle: p.Handle(), SlackUserID: p.SlackUserID}
}

// Delivery is one (recipient, channel) unit of work.
type Delivery struct {
	Channel    Channel     `json:"channel"`
	Recipients []Recipient `json:"recipients,omitempty"`
	Target     string      `json:"target,omitempty"`
	Subject    string      `json:"subject,omitempty"`
	Text       string      `json:"text"`
}

// DirectMessage builds an IM delivery.
func DirectMessage(to Recipient, text string) Delivery {
	return Delivery{Channel: ChannelIM, Recipients: []Recipient{to}, Text: text}
}

// GroupMessage builds an MPIM delivery.
func GroupMessage(to []Recipient, text string) Delivery {
	return Delivery{Channel: ChannelMPIM, Recipients: to, Text: text}
}

// ExternalMail builds a lichess mail delivery.
func ExternalMail(to Recipient, subject, body string) Delivery {
	return Delivery{Channel: ChannelMail, Recipients: []Recipient{to}, Subject: subject, Text: body}
}

// ChannelMessage builds a chat channel post.
func ChannelMessage(channel, text string) Delivery {
	return Delivery{Channel: ChannelPost, Target: channel, Text: text}
}

// Key identifies identical deliveries within one event.
func (d Delivery) Key() string {
	handles := make([]string, len(d.Recipients))
	for i, r := range d.Recipients {
		handles[i] = string(r.Handle)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", d.Channel, strings.Join(handles, "+"), d.Target, d.Subject, d.Text)
}

// Sender is the transport collaborator. Each call is fire-and-forget from the
// engine's point of view; failures must surface as errors.
type Sender interface {
	SendDirectMessage(ctx context.Context, to Recipient, text string) error
	SendGroupMessage(ctx context.Context, to []Recipient, text string) error
	SendExternalMail(ctx context.Context, to Recipient, subject, body string) error
	SendChannelMessage(ctx context.Context, channel, text string) error
}

// Send hands a delivery to the matching Sender method.
func Send(ctx context.Context, s Sender, d Delivery) error {
	switch d.Channel {
	case ChannelIM:
		return s.SendDirectMessage(ctx, d.Recipients[0], d.Text)
	case ChannelMPIM:
		return s.SendGroupMessage(ctx, d.Recipients, d.Text)
	case ChannelMail:
		return s.SendExternalMail(ctx, d.Recipients[0], d.Subject, d.Text)
	case ChannelPost:
		return s.SendChannelMessage(ctx, d.Target, d.Text)
	default:
		return fmt.Errorf("unknown delivery channel %q", d.Channel)
	}
}

// Composite routes chat deliveries to one sender and mail to another.
type Composite struct {
	Chat Sender
	Mail Sender
}

var _ Sender = (*Composite)(nil)

func (c *Composite) SendDirectMessage(ctx context.Context, to Recipient, text string) error {
	return c.Chat.SendDirectMessage(ctx, to, text)
}

func (c *Composite) SendGroupMessage(ctx context.Context, to []Recipient, text string) error {
	return c.Chat.SendGroupMessage(ctx, to, text)
}

func (c *Composite) SendExternalMail(ctx context.Context, to Recipient, subject, body string) error {
	if c.Mail == nil {
		return fmt.Errorf("no mail transport configured")
	}
	return c.Mail.SendExternalMail(ctx, to, subject, body)
}

func (c *Composite) SendChannelMessage(ctx context.Context, channel, text string) error {
	return c.Chat.SendChannelMessage(ctx, channel, text)
}

// ChannelPosts builds one post per league channel of the given type that accepts messages.
func ChannelPosts(l *league.League, t league.ChannelType, text string) []Delivery {
	var out []Delivery
	for _, c := range l.ChannelsFor(t) {
		target := c.ChannelID
		if target == "" {
			target = c.SlackChannel
		}
		out = append(out, ChannelMessage(target, text))
	}
	return out
}
