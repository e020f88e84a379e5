package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type envelope struct {
	Kind      string   `msgpack:"kind"`
	RoundID   string   `msgpack:"round_id,omitempty"`
	Pairings  []string `msgpack:"pairing_ids,omitempty"`
	OffsetSec *int64   `msgpack:"offset_seconds,omitempty"`
}

func TestDecode(t *testing.T) {
	offset := int64(3600)
	data, err := msgpack.Marshal(envelope{Kind: "before_game_time", Pairings: []string{"p1"}, OffsetSec: &offset})
	require.NoError(t, err)

	var got envelope
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, "before_game_time", got.Kind)
	assert.Equal(t, []string{"p1"}, got.Pairings)
	require.NotNil(t, got.OffsetSec)
	assert.Equal(t, int64(3600), *got.OffsetSec)

	assert.Error(t, Decode([]byte{0xc1}, &got))
}

func TestMock_ProcessMessageDecodes(t *testing.T) {
	m := NewMock("test")
	data, err := msgpack.Marshal(envelope{Kind: "players_round_start", RoundID: "r1"})
	require.NoError(t, err)

	var got envelope
	require.NoError(t, m.ProcessMessage(data, &got))
	assert.Equal(t, "r1", got.RoundID)
	assert.Len(t, m.ProcessMessageCalls, 1)

	require.NoError(t, m.SendMessage(DefaultTopic, got))
	assert.Equal(t, DefaultTopic, m.SendMessageCalls[0].Topic)
}
