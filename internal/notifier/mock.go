package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Sender interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	SendDirectMessageFunc  func(to Recipient, text string) error
	SendGroupMessageFunc   func(to []Recipient, text string) error
	SendExternalMailFunc   func(to Recipient, subject, body string) error
	SendChannelMessageFunc func(channel, text string) error

	// Call records
	DirectMessageCalls []struct {
		To   Recipient
		Text string
	}
	GroupMessageCalls []struct {
		To   []Recipient
		Text string
	}
	ExternalMailCalls []struct {
		To            Recipient
		Subject, Body string
	}
	ChannelMessageCalls []struct {
		Channel, Text string
	}
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

var _ Sender = (*Mock)(nil)

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DirectMessageCalls = nil
	m.GroupMessageCalls = nil
	m.ExternalMailCalls = nil
	m.ChannelMessageCalls = nil
}

func (m *Mock) SendDirectMessage(ctx context.Context, to Recipient, text string) error {
	m.mu.Lock()
	m.DirectMessageCalls = append(m.DirectMessageCalls, struct {
		To   Recipient
		Text string
	}{to, text})
	m.mu.Unlock()
	if m.SendDirectMessageFunc != nil {
		return m.SendDirectMessageFunc(to, text)
	}
	return nil
}

func (m *Mock) SendGroupMessage(ctx context.Context, to []Recipient, text string) error {
	m.mu.Lock()
	m.GroupMessageCalls = append(m.GroupMessageCalls, struct {
		To   []Recipient
		Text string
	}{to, text})
	m.mu.Unlock()
	if m.SendGroupMessageFunc != nil {
		return m.SendGroupMessageFunc(to, text)
	}
	return nil
}

func (m *Mock) SendExternalMail(ctx context.Context, to Recipient, subject, body string) error {
	m.mu.Lock()
	m.ExternalMailCalls = append(m.ExternalMailCalls, struct {
		To            Recipient
		Subject, Body string
	}{to, subject, body})
	m.mu.Unlock()
	if m.SendExternalMailFunc != nil {
		return m.SendExternalMailFunc(to, subject, body)
	}
	return nil
}

func (m *Mock) SendChannelMessage(ctx context.Context, channel, text string) error {
	m.mu.Lock()
	m.ChannelMessageCalls = append(m.ChannelMessageCalls, struct {
		Channel, Text string
	}{channel, text})
	m.mu.Unlock()
	if m.SendChannelMessageFunc != nil {
		return m.SendChannelMessageFunc(channel, text)
	}
	return nil
}

// TotalCalls returns the number of transport calls of any kind.
func (m *Mock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DirectMessageCalls) + len(m.GroupMessageCalls) + len(m.ExternalMailCalls) + len(m.ChannelMessageCalls)
}
