// internal/lobby/lobby_manager_test.go
package lobby

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/dictionary"
	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/models"
)

func testManager() (*Manager, *game.Registry) {
	reg := game.NewRegistry()
	defaults := game.DefaultSettings()
	defaults.TurnTimeout = 0
	m := NewManager(reg, board.NewGenerator(), dictionary.New("cat"), defaults)
	return m, reg
}

func ident(name string) models.Identity {
	return models.Identity{ID: uuid.New(), DisplayName: name}
}

func testConn(playerID uuid.UUID) *LobbyConnection {
	return &LobbyConnection{
		PlayerID: playerID,
		OutChan:  make(chan map[string]interface{}, 32),
	}
}

func seat(t *testing.T, l *Lobby, who models.Identity) {
	t.Helper()
	require.NoError(t, l.AddConnection(who, testConn(who.ID)))
}

func TestLobbyJoinedFrameShape(t *testing.T) {
	m, _ := testManager()
	l, err := m.CreateCustom(nil)
	require.NoError(t, err)

	alice := ident("alice")
	conn := testConn(alice.ID)
	require.NoError(t, l.AddConnection(alice, conn))

	joined := <-conn.OutChan
	assert.Equal(t, "lobby_joined", joined["type"])
	assert.Equal(t, l.RoomKey, joined["lobby_id"])
	assert.Equal(t, ModeCustom, joined["lobby_type"])
	assert.Equal(t, l.RoomKey, joined["lobby_code"])

	roster := <-conn.OutChan
	assert.Equal(t, "lobby_player_list", roster["type"])
	assert.Equal(t, l.RoomKey, roster["lobby_code"])
	players, ok := roster["players"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, players, 1)
	assert.Equal(t, alice.ID.String(), players[0]["id"])

	// Channel lobbies have no invite code to advertise.
	chl, err := m.JoinChannel("general")
	require.NoError(t, err)
	bob := ident("bob")
	chConn := testConn(bob.ID)
	require.NoError(t, chl.AddConnection(bob, chConn))
	chJoined := <-chConn.OutChan
	assert.Equal(t, "general", chJoined["lobby_id"])
	_, hasCode := chJoined["lobby_code"]
	assert.False(t, hasCode)
}

func TestJoinChannelCreatesOnce(t *testing.T) {
	m, _ := testManager()

	l1, err := m.JoinChannel("general")
	require.NoError(t, err)
	l2, err := m.JoinChannel("general")
	require.NoError(t, err)
	assert.Same(t, l1, l2)
	assert.Equal(t, ModeChannel, l1.Mode)
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	m, _ := testManager()
	l, err := m.JoinChannel("general")
	require.NoError(t, err)

	alice, bob := ident("alice"), ident("bob")
	seat(t, l, alice)
	seat(t, l, bob)
	assert.Equal(t, alice.ID, l.HostID)

	// Re-joining does not duplicate the seat.
	seat(t, l, bob)
	l.Mu.Lock()
	size := l.SizeUnsafe()
	l.Mu.Unlock()
	assert.Equal(t, 2, size)
}

func TestHostPromotionOnLeave(t *testing.T) {
	m, _ := testManager()
	l, err := m.JoinChannel("general")
	require.NoError(t, err)

	alice, bob, carol := ident("alice"), ident("bob"), ident("carol")
	seat(t, l, alice)
	seat(t, l, bob)
	seat(t, l, carol)

	l.RemoveUser(alice.ID)
	assert.Equal(t, bob.ID, l.HostID)
}

func TestEmptyLobbyIsDeleted(t *testing.T) {
	m, _ := testManager()
	l, err := m.JoinChannel("general")
	require.NoError(t, err)
	alice := ident("alice")
	seat(t, l, alice)

	l.RemoveUser(alice.ID)
	_, ok := m.Get("general")
	assert.False(t, ok)
}

func TestCustomCodeShape(t *testing.T) {
	m, _ := testManager()
	l, err := m.CreateCustom(nil)
	require.NoError(t, err)

	assert.Len(t, l.RoomKey, roomCodeLength)
	for _, ch := range l.RoomKey {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, ch), "unexpected code char %q", ch)
	}

	got, err := m.GetCustom(l.RoomKey)
	require.NoError(t, err)
	assert.Same(t, l, got)

	_, err = m.GetCustom("ZZZZZZ")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestLobbyCapacity(t *testing.T) {
	m, _ := testManager()
	l, err := m.CreateCustom(nil)
	require.NoError(t, err)

	for i := 0; i < MaxPlayers; i++ {
		seat(t, l, ident("p"))
	}
	extra := ident("late")
	assert.ErrorIs(t, l.AddConnection(extra, testConn(extra.ID)), ErrLobbyFull)
}

func TestStartGameChecks(t *testing.T) {
	m, _ := testManager()
	l, err := m.JoinChannel("general")
	require.NoError(t, err)
	alice, bob := ident("alice"), ident("bob")
	seat(t, l, alice)

	_, err = m.StartGame("general", alice.ID)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	seat(t, l, bob)
	_, err = m.StartGame("general", bob.ID)
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = m.StartGame("nosuch", alice.ID)
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestStartGameHandsRoomToRegistry(t *testing.T) {
	m, reg := testManager()
	l, err := m.JoinChannel("general")
	require.NoError(t, err)
	alice, bob := ident("alice"), ident("bob")
	seat(t, l, alice)
	seat(t, l, bob)

	s, err := m.StartGame("general", alice.ID)
	require.NoError(t, err)
	require.NotNil(t, s)

	// The key now resolves to the session, not a lobby.
	_, ok := m.Get("general")
	assert.False(t, ok)
	got, ok := reg.GetByRoomKey("general")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Len(t, s.Slots, 2)

	// Joining the busy room is refused until the game ends.
	_, err = m.JoinChannel("general")
	assert.ErrorIs(t, err, ErrRoomBusy)
}
