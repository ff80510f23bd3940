// internal/lobby/lobby.go
package lobby

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/models"
)

// Mode distinguishes open channel rooms from invite-code custom rooms.
type Mode string

const (
	ModeChannel Mode = "channel"
	ModeCustom  Mode = "custom"
)

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// LobbyConnection is a single member's live presence in the lobby. The
// OutChan is owned by the connection layer; the lobby only writes to it and
// never closes it.
type LobbyConnection struct {
	PlayerID uuid.UUID
	OutChan  chan map[string]interface{}
}

// Write pushes a frame onto the member's OutChan without blocking. A full or
// closed channel drops the frame.
func (conn *LobbyConnection) Write(frame map[string]interface{}) {
	select {
	case conn.OutChan <- frame:
	default:
		frameType, _ := frame["type"].(string)
		log.Printf("lobby: OutChan for player %s full or closed, dropped %q frame", conn.PlayerID, frameType)
	}
}

// member is one seated player, kept in join order so host succession is
// deterministic.
type member struct {
	identity models.Identity
	joinedAt time.Time
}

// Lobby is a pre-game staging room keyed by its room key. Mu guards members
// and connections.
type Lobby struct {
	RoomKey  string
	Mode     Mode
	HostID   uuid.UUID
	Settings game.Settings

	members     []*member
	Connections map[uuid.UUID]*LobbyConnection

	// OnEmpty fires after the last member leaves. Assigned by the Manager
	// so the lobby disappears from the index.
	OnEmpty func(roomKey string)

	Mu sync.Mutex
}

func newLobby(roomKey string, mode Mode, settings game.Settings) *Lobby {
	return &Lobby{
		RoomKey:     roomKey,
		Mode:        mode,
		Settings:    settings,
		Connections: make(map[uuid.UUID]*LobbyConnection),
	}
}

func (l *Lobby) memberIndexUnsafe(playerID uuid.UUID) int {
	for i, m := range l.members {
		if m.identity.ID == playerID {
			return i
		}
	}
	return -1
}

// AddConnection seats the player and attaches their connection. Re-joining
// replaces the previous connection. The first seat becomes host.
func (l *Lobby) AddConnection(who models.Identity, conn *LobbyConnection) error {
	l.Mu.Lock()

	idx := l.memberIndexUnsafe(who.ID)
	if idx < 0 {
		if len(l.members) >= MaxPlayers {
			l.Mu.Unlock()
			return ErrLobbyFull
		}
		if len(l.members) == 0 {
			l.HostID = who.ID
		}
		l.members = append(l.members, &member{identity: who, joinedAt: time.Now()})
	}

	l.Connections[who.ID] = conn

	joined := map[string]interface{}{
		"type":       "lobby_joined",
		"lobby_id":   l.RoomKey,
		"lobby_type": l.Mode,
		"host_id":    l.HostID.String(),
		"your_id":    who.ID.String(),
	}
	if l.Mode == ModeCustom {
		joined["lobby_code"] = l.RoomKey
	}
	roster := l.playerListFrameUnsafe()
	l.Mu.Unlock()

	conn.Write(joined)
	l.BroadcastAll(roster)
	return nil
}

// RemoveUser unseats a player and tears down their connection. The earliest
// remaining joiner inherits the room; an empty lobby triggers OnEmpty.
func (l *Lobby) RemoveUser(playerID uuid.UUID) {
	l.Mu.Lock()

	idx := l.memberIndexUnsafe(playerID)
	if idx < 0 {
		l.Mu.Unlock()
		return
	}
	l.members = append(l.members[:idx], l.members[idx+1:]...)
	delete(l.Connections, playerID)
	if l.HostID == playerID && len(l.members) > 0 {
		l.HostID = l.members[0].identity.ID
		log.Printf("lobby %s: host left, promoting %s", l.RoomKey, l.HostID)
	}

	roster := l.playerListFrameUnsafe()
	isEmpty := len(l.members) == 0
	onEmpty := l.OnEmpty
	l.Mu.Unlock()

	l.BroadcastAll(roster)
	if isEmpty && onEmpty != nil {
		log.Printf("lobby %s is empty, tearing down", l.RoomKey)
		onEmpty(l.RoomKey)
	}
}

// RosterUnsafe returns member identities in join order. Assumes lock held.
func (l *Lobby) RosterUnsafe() []models.Identity {
	out := make([]models.Identity, len(l.members))
	for i, m := range l.members {
		out[i] = m.identity
	}
	return out
}

// SizeUnsafe reports the seated member count. Assumes lock held.
func (l *Lobby) SizeUnsafe() int {
	return len(l.members)
}

// BroadcastAllUnsafe fans a frame out to every live connection. Write is
// non-blocking, so holding the lock is safe.
func (l *Lobby) BroadcastAllUnsafe(frame map[string]interface{}) {
	for _, conn := range l.Connections {
		conn.Write(frame)
	}
}

// BroadcastAll sends a frame to every connected member.
func (l *Lobby) BroadcastAll(frame map[string]interface{}) {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	l.BroadcastAllUnsafe(frame)
}

// playerListFrameUnsafe builds the lobby_player_list broadcast sent after
// every membership change. Assumes lock held.
func (l *Lobby) playerListFrameUnsafe() map[string]interface{} {
	players := make([]map[string]interface{}, len(l.members))
	for i, m := range l.members {
		players[i] = map[string]interface{}{
			"id":           m.identity.ID.String(),
			"display_name": m.identity.DisplayName,
			"avatar_ref":   m.identity.AvatarRef,
			"is_host":      m.identity.ID == l.HostID,
		}
	}
	frame := map[string]interface{}{
		"type":    "lobby_player_list",
		"players": players,
	}
	if l.Mode == ModeCustom {
		frame["lobby_code"] = l.RoomKey
	}
	return frame
}
