package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dur(d time.Duration) *time.Duration { return &d }

func TestOffsetString(t *testing.T) {
	tests := []struct {
		name     string
		offset   *time.Duration
		expected string
	}{
		{"nil", nil, "?"},
		{"one hour", dur(time.Hour), "1 hour"},
		{"two hours", dur(2 * time.Hour), "2 hours"},
		{"ninety seconds", dur(90 * time.Second), "1 minutes"},
		{"thirty minutes", dur(30 * time.Minute), "30 minutes"},
		{"zero", dur(0), "0 hours"},
		{"ninety minutes", dur(90 * time.Minute), "90 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OffsetString(tt.offset))
		})
	}
}

func TestRegistryFamiliesAreValid(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Lookup(name)
			require.NoError(t, err)
			assert.NoError(t, Validate(f))
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("round_ended")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestRenderMissingParamIsError(t *testing.T) {
	_, err := Render("Hello {self}, meet {opponent}", Params{"self": "alice"})
	assert.ErrorIs(t, err, ErrMissingParam)

	out, err := Render("Hello {self}", Params{"self": "alice", "unused": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Hello alice", out)
}

func TestRenderDoesNotRescanValues(t *testing.T) {
	out, err := Render("{a}", Params{"a": "{b}"})
	require.NoError(t, err)
	assert.Equal(t, "{b}", out)
}

func beforeGameParams() (Params, map[Side]Params) {
	shared := Params{
		ParamOffset: OffsetString(dur(time.Hour)),
		ParamWhite:  "alice",
		ParamBlack:  "bob",
		ParamRound:  "3",
		ParamLeague: "Team 4545",
	}
	sides := map[Side]Params{
		White: {ParamSelf: "alice", ParamOpponent: "bob", ParamColor: "white", ParamSlackURL: "u1"},
		Black: {ParamSelf: "bob", ParamOpponent: "alice", ParamColor: "black", ParamSlackURL: "u2"},
	}
	return shared, sides
}

func TestBindRendersEveryUnit(t *testing.T) {
	shared, sides := beforeGameParams()
	rs := Bind(MustLookup(BeforeGameTime), shared, sides)

	assert.Empty(t, rs.Errors())
	assert.Equal(t, "Reminder: Your game will start in 1 hour.", rs.MPIM.Text)
	assert.Equal(t, "Reminder: Your game will start in 1 hour.\n<@alice> (_white pieces_) vs <@bob> (_black pieces_)", rs.IM[White].Text)
	assert.Equal(t, "Round 3 - Team 4545", rs.MailSubject[Black].Text)
	assert.True(t, rs.MailBody[Black].OK())
}

func TestBindMissingSharedParamFailsEveryUnit(t *testing.T) {
	shared, sides := beforeGameParams()
	delete(shared, ParamOffset)
	rs := Bind(MustLookup(BeforeGameTime), shared, sides)

	assert.ErrorIs(t, rs.MPIM.Err, ErrMissingParam)
	assert.ErrorIs(t, rs.IM[White].Err, ErrMissingParam)
	assert.False(t, rs.IM[Black].OK())
}

func TestBindMissingSideParamIsolatesSide(t *testing.T) {
	shared, sides := beforeGameParams()
	delete(sides[Black], ParamSlackURL)
	rs := Bind(MustLookup(BeforeGameTime), shared, sides)

	assert.True(t, rs.MPIM.OK(), "group message only uses shared params")
	assert.True(t, rs.IM[White].OK())
	assert.ErrorIs(t, rs.IM[Black].Err, ErrMissingParam)
	assert.Len(t, rs.Errors(), 3)
}

func TestBindEmptyTemplateIsNotOffered(t *testing.T) {
	shared, sides := beforeGameParams()
	f := MustLookup(BeforeGameTime)
	f.MPIM = ""
	rs := Bind(f, shared, sides)

	assert.False(t, rs.MPIM.OK())
	assert.NoError(t, rs.MPIM.Err)
}
