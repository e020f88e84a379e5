package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/league-notifier/internal/notifier"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc      func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	openConversationContextFunc func(ctx context.Context, params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error)

	postedTo []string
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.postedTo = append(m.postedTo, channelID)
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func (m *mockSlackAPI) OpenConversationContext(ctx context.Context, params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error) {
	if m.openConversationContextFunc != nil {
		return m.openConversationContextFunc(ctx, params)
	}
	ch := &slackapi.Channel{}
	ch.ID = "G123"
	return ch, false, false, nil
}

func TestSendDirectMessage_UsesSlackIDWhenKnown(t *testing.T) {
	api := &mockSlackAPI{}
	n := NewNotifierWithAPI(api)

	require.NoError(t, n.SendDirectMessage(context.Background(), notifier.Recipient{Handle: "alice", SlackUserID: "U1"}, "hi"))
	require.NoError(t, n.SendDirectMessage(context.Background(), notifier.Recipient{Handle: "bob"}, "hi"))

	assert.Equal(t, []string{"U1", "@bob"}, api.postedTo)
}

func TestSendDirectMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}
	n := NewNotifierWithAPI(api)

	err := n.SendDirectMessage(context.Background(), notifier.Recipient{Handle: "alice"}, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
}

func TestSendGroupMessage_OpensConversation(t *testing.T) {
	var opened []string
	api := &mockSlackAPI{
		openConversationContextFunc: func(ctx context.Context, params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error) {
			opened = params.Users
			ch := &slackapi.Channel{}
			ch.ID = "G999"
			return ch, false, false, nil
		},
	}
	n := NewNotifierWithAPI(api)

	err := n.SendGroupMessage(context.Background(), []notifier.Recipient{
		{Handle: "alice", SlackUserID: "U1"},
		{Handle: "bob", SlackUserID: "U2"},
	}, "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2"}, opened)
	assert.Equal(t, []string{"G999"}, api.postedTo)
}

func TestSendGroupMessage_RequiresLinkedAccounts(t *testing.T) {
	api := &mockSlackAPI{}
	n := NewNotifierWithAPI(api)

	err := n.SendGroupMessage(context.Background(), []notifier.Recipient{{Handle: "alice", SlackUserID: "U1"}, {Handle: "bob"}}, "hello")
	assert.Error(t, err)
	assert.Empty(t, api.postedTo)
}

func TestSendGroupMessage_OpenFailure(t *testing.T) {
	api := &mockSlackAPI{
		openConversationContextFunc: func(ctx context.Context, params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error) {
			return nil, false, false, errors.New("too_many_users")
		},
	}
	n := NewNotifierWithAPI(api)

	err := n.SendGroupMessage(context.Background(), []notifier.Recipient{{Handle: "alice", SlackUserID: "U1"}}, "hello")
	assert.Error(t, err)
	assert.Empty(t, api.postedTo)
}

func TestSendChannelMessage(t *testing.T) {
	api := &mockSlackAPI{}
	n := NewNotifierWithAPI(api)

	require.NoError(t, n.SendChannelMessage(context.Background(), "#mods", "heads up"))
	assert.Equal(t, []string{"#mods"}, api.postedTo)
}

func TestSendExternalMail_Unsupported(t *testing.T) {
	n := NewNotifierWithAPI(&mockSlackAPI{})
	assert.Error(t, n.SendExternalMail(context.Background(), notifier.Recipient{Handle: "alice"}, "s", "b"))
}
