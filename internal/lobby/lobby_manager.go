// internal/lobby/lobby_manager.go
package lobby

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/dictionary"
	"github.com/spellgrid/gridspell/internal/game"
)

var (
	// ErrRoomBusy means the room key is owned by a game already underway.
	ErrRoomBusy = errors.New("a game is already in progress in this room")

	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrLobbyFull          = errors.New("lobby is full")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrCodeSpaceExhausted = errors.New("could not allocate a room code")
)

// Invite codes avoid 0/O and 1/I lookalikes.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 6
)

// Manager tracks all active lobbies in memory, keyed by room key, and hands
// rooms over to the session registry when a game starts. A room key resolves
// to a lobby or a running session, never both.
type Manager struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	rng     *rand.Rand

	registry *game.Registry
	gen      *board.Generator
	lexicon  *dictionary.Dictionary
	defaults game.Settings
}

func NewManager(registry *game.Registry, gen *board.Generator, lexicon *dictionary.Dictionary, defaults game.Settings) *Manager {
	return &Manager{
		lobbies:  make(map[string]*Lobby),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		registry: registry,
		gen:      gen,
		lexicon:  lexicon,
		defaults: defaults,
	}
}

// Defaults returns the baseline session settings new lobbies start from.
func (m *Manager) Defaults() game.Settings {
	return m.defaults
}

// JoinChannel resolves the lobby for an open channel room, creating it on
// first join. Joining a room whose game already started is refused.
func (m *Manager) JoinChannel(roomKey string) (*Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry.HasRoomKey(roomKey) {
		return nil, ErrRoomBusy
	}
	l, ok := m.lobbies[roomKey]
	if !ok {
		l = newLobby(roomKey, ModeChannel, m.defaults)
		l.OnEmpty = m.deleteLobby
		m.lobbies[roomKey] = l
		log.Printf("lobby manager: created channel lobby %s", roomKey)
	}
	return l, nil
}

// CreateCustom allocates a fresh invite code and a lobby behind it.
func (m *Manager) CreateCustom(settings *game.Settings) (*Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, err := m.newRoomCodeUnsafe()
	if err != nil {
		return nil, err
	}
	effective := m.defaults
	if settings != nil {
		effective = *settings
	}
	l := newLobby(code, ModeCustom, effective)
	l.OnEmpty = m.deleteLobby
	m.lobbies[code] = l
	log.Printf("lobby manager: created custom lobby %s", code)
	return l, nil
}

// GetCustom resolves an invite code to its lobby.
func (m *Manager) GetCustom(code string) (*Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry.HasRoomKey(code) {
		return nil, ErrRoomBusy
	}
	l, ok := m.lobbies[code]
	if !ok || l.Mode != ModeCustom {
		return nil, ErrLobbyNotFound
	}
	return l, nil
}

// Get resolves any room key to its lobby.
func (m *Manager) Get(roomKey string) (*Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[roomKey]
	return l, ok
}

func (m *Manager) deleteLobby(roomKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, roomKey)
	log.Printf("lobby manager: deleted lobby %s", roomKey)
}

// StartGame turns a lobby into a running session: host-only, 2..6 players,
// randomized turn order. The lobby is unindexed and the session registered
// in the same critical section, so the room key never resolves to both and
// never to neither with members still seated.
func (m *Manager) StartGame(roomKey string, requester uuid.UUID) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[roomKey]
	if !ok {
		return nil, ErrLobbyNotFound
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()
	if l.HostID != requester {
		return nil, ErrNotHost
	}
	if l.SizeUnsafe() < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	roster := l.RosterUnsafe()
	m.rng.Shuffle(len(roster), func(i, j int) {
		roster[i], roster[j] = roster[j], roster[i]
	})

	s := game.NewSession(roomKey, roster, l.Settings, m.gen, m.lexicon)
	m.registry.Add(s)
	delete(m.lobbies, roomKey)
	log.Printf("lobby manager: lobby %s started game %s with %d players", roomKey, s.ID, len(roster))
	return s, nil
}

// newRoomCodeUnsafe draws codes until one is free of both the lobby index
// and the session registry. Assumes the manager lock is held.
func (m *Manager) newRoomCodeUnsafe() (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = roomCodeAlphabet[m.rng.Intn(len(roomCodeAlphabet))]
		}
		code := string(buf)
		if _, taken := m.lobbies[code]; taken {
			continue
		}
		if m.registry.HasRoomKey(code) {
			continue
		}
		return code, nil
	}
	return "", ErrCodeSpaceExhausted
}
