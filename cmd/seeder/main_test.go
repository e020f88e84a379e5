package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/mauv0809/league-notifier/internal/database"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	store := league.New(db)
	ctx := context.Background()

	round, err := seed(ctx, store, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	loaded, err := store.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, loaded.AcceptsPlayerNotifications())
	assert.True(t, loaded.League().EnableNotifications)

	groups, err := store.PairingGroups(ctx, round.ID)
	require.NoError(t, err)
	assert.Len(t, groups, numTeams/2)
	for _, g := range groups {
		assert.Len(t, g, numBoards)
	}

	unavailable, err := store.UnavailablePlayers(ctx, round.ID)
	require.NoError(t, err)
	assert.Len(t, unavailable, 1)
}

func TestWriteSamples(t *testing.T) {
	dir := t.TempDir()
	round := &league.Round{ID: "r1"}

	require.NoError(t, writeSamples(dir, round))
	data, err := os.ReadFile(filepath.Join(dir, "players_round_start.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"players_round_start","round_id":"r1"}`, string(data))
}
