// internal/game/registry_test.go
package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/models"
)

func registryTestSession(roomKey string) *Session {
	roster := []models.Identity{
		{ID: uuid.New(), DisplayName: "a"},
		{ID: uuid.New(), DisplayName: "b"},
	}
	st := DefaultSettings()
	st.TurnTimeout = 0
	return NewSession(roomKey, roster, st, board.NewGenerator(), fixtureLexicon())
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()
	s := registryTestSession("ROOMAA")
	r.Add(s)

	byID, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, byID)

	byKey, ok := r.GetByRoomKey("ROOMAA")
	require.True(t, ok)
	assert.Same(t, s, byKey)

	assert.True(t, r.HasRoomKey("ROOMAA"))
	assert.False(t, r.HasRoomKey("NOSUCH"))

	r.Remove(s.ID)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.False(t, r.HasRoomKey("ROOMAA"))
}

func TestSweepReapsFinishedSessions(t *testing.T) {
	r := NewRegistry()
	s := registryTestSession("ROOMBB")
	r.Add(s)
	s.Start()
	s.Abandon()
	require.Equal(t, StatusFinished, s.Status)

	// Not yet past the grace window.
	r.sweep(time.Now())
	_, ok := r.Get(s.ID)
	assert.True(t, ok)

	r.sweep(time.Now().Add(finishedTTL + time.Second))
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
}

func TestSweepAbandonsEmptySessions(t *testing.T) {
	r := NewRegistry()
	s := registryTestSession("ROOMCC")
	s.Settings.DisconnectGrace = time.Hour
	s.Settings.BlipTolerance = time.Hour
	r.Add(s)
	s.Start()
	s.HandleDisconnect(s.Slots[0].Identity.ID)
	s.HandleDisconnect(s.Slots[1].Identity.ID)

	r.sweep(time.Now())
	_, ok := r.Get(s.ID)
	assert.True(t, ok)

	r.sweep(time.Now().Add(emptyTTL + time.Second))
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, StatusFinished, s.Status)

	// A reconnect losing the race against the reaper finds nothing to
	// rejoin; the handler layer maps this to a not-found error.
	_, found := r.Get(s.ID)
	assert.False(t, found)
}
