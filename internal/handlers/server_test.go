// internal/handlers/server_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellgrid/gridspell/internal/auth"
	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/dictionary"
	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/lobby"
	"github.com/spellgrid/gridspell/internal/models"
)

func testServer() *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	registry := game.NewRegistry()
	manager := lobby.NewManager(registry, board.NewGenerator(), dictionary.New("cat"), game.DefaultSettings())
	return NewServer(logger, manager, registry, nil)
}

func TestHealthHandler(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGuestTokenHandler(t *testing.T) {
	auth.Init()
	s := testServer()

	payload := bytes.NewBufferString(`{"display_name":"lexi","avatar_ref":"avatars/3.png"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/guest", payload)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])

	identity, err := auth.AuthenticateJWT(body["token"])
	require.NoError(t, err)
	assert.Equal(t, "lexi", identity.DisplayName)
	assert.Equal(t, "avatars/3.png", identity.AvatarRef)
	assert.Equal(t, body["player_id"], identity.ID.String())
	assert.False(t, identity.IsAdmin)
}

func TestGuestTokenHandlerDefaultsName(t *testing.T) {
	auth.Init()
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	identity, err := auth.AuthenticateJWT(body["token"])
	require.NoError(t, err)
	assert.NotEmpty(t, identity.DisplayName)
}

func TestSubmitWordFrameDecoding(t *testing.T) {
	raw := []byte(`{"type":"submit_word","path":[[0,0],[0,1],[1,2]]}`)
	var frame inboundFrame
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, "submit_word", frame.Type)

	path := positionsFromPairs(frame.Path)
	assert.Equal(t, []models.Position{
		{Row: 0, Col: 0},
		{Row: 0, Col: 1},
		{Row: 1, Col: 2},
	}, path)
}

func TestInboundFrameFieldNames(t *testing.T) {
	var join inboundFrame
	require.NoError(t, json.Unmarshal([]byte(`{"type":"join_channel_lobby","channel":"general","guild":"g1"}`), &join))
	assert.Equal(t, "general", join.Channel)
	assert.Equal(t, "g1", join.Guild)

	var del inboundFrame
	id := uuid.NewString()
	require.NoError(t, json.Unmarshal([]byte(`{"type":"admin_delete_game","session_id":"`+id+`"}`), &del))
	assert.Equal(t, id, del.SessionID)
}

func TestFrameSettingsApply(t *testing.T) {
	rounds := 3
	timer := 0
	regen := false
	fs := &frameSettings{
		Rounds:         &rounds,
		TurnTimerSec:   &timer,
		RegenerateGrid: &regen,
	}
	got := fs.apply(game.DefaultSettings())
	assert.Equal(t, 3, got.Rounds)
	assert.Zero(t, got.TurnTimeout)
	assert.False(t, got.RegenerateGrid)
	// Unset fields keep their defaults.
	assert.Equal(t, game.DefaultSettings().RetainUsedWords, got.RetainUsedWords)
	assert.Equal(t, game.DefaultSettings().DisconnectGrace, got.DisconnectGrace)
}

// A reconnecting identity replaces its old connection; when the old
// connection's read loop finally exits, its teardown must not unseat the
// player the replacement just restored.
func TestStaleConnectionTeardownLeavesLivePlayerSeated(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	registry := game.NewRegistry()
	gw := NewGateway(logger, nil, registry, nil)

	p1 := models.Identity{ID: uuid.New(), DisplayName: "p1"}
	p2 := models.Identity{ID: uuid.New(), DisplayName: "p2"}
	s := game.NewSession("room", []models.Identity{p1, p2}, game.DefaultSettings(), board.NewGenerator(), dictionary.New("cat"))
	registry.Add(s)
	gw.bindSession(s)

	stale := &client{identity: p1, cancel: func() {}, out: make(chan map[string]interface{}, outQueueSize)}
	gw.register(stale)
	stale.setSession(s)

	replacement := &client{identity: p1, cancel: func() {}, out: make(chan map[string]interface{}, outQueueSize)}
	gw.register(replacement)
	require.True(t, s.HandleReconnect(p1.ID))
	replacement.setSession(s)

	// The stale connection's read loop exits after the replacement took over.
	gw.teardown(stale)

	s.Mu.Lock()
	connected := s.Slots[0].Connected
	removed := s.Slots[0].Removed
	s.Mu.Unlock()
	assert.True(t, connected)
	assert.False(t, removed)

	// The replacement is still the registered connection.
	gw.mu.Lock()
	assert.Same(t, replacement, gw.clients[p1.ID])
	gw.mu.Unlock()

	// Once the replacement itself goes away, the disconnect is real.
	gw.teardown(replacement)
	s.Mu.Lock()
	connected = s.Slots[0].Connected
	s.Mu.Unlock()
	assert.False(t, connected)
}

func TestClientSendShedsOldestWhenFull(t *testing.T) {
	cl := &client{out: make(chan map[string]interface{}, 2)}
	cl.send(map[string]interface{}{"type": "a"})
	cl.send(map[string]interface{}{"type": "b"})
	cl.send(map[string]interface{}{"type": "c"})

	first := <-cl.out
	second := <-cl.out
	assert.Equal(t, "b", first["type"])
	assert.Equal(t, "c", second["type"])
	select {
	case extra := <-cl.out:
		t.Fatalf("unexpected extra frame: %v", extra)
	default:
	}
}
