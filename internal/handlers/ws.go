// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spellgrid/gridspell/internal/auth"
	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/lobby"
	"github.com/spellgrid/gridspell/internal/models"
)

// Custom WebSocket close codes, beyond the standard range.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
)

// outQueueSize bounds each client's outbound queue. When the queue is full
// the oldest frame is shed; a resyncing client recovers via game_state.
const outQueueSize = 64

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// client is one live WebSocket connection for one player.
type client struct {
	identity models.Identity
	conn     *websocket.Conn
	cancel   context.CancelFunc

	// out is never closed; writers rely on drop-oldest and the writePump
	// exits via context cancellation.
	out chan map[string]interface{}

	mu      sync.Mutex
	lobby   *lobby.Lobby
	session *game.Session
}

// send enqueues a frame, shedding the oldest pending frame when the queue is
// full so slow readers fall behind instead of stalling the game.
func (c *client) send(frame map[string]interface{}) {
	for {
		select {
		case c.out <- frame:
			return
		default:
			select {
			case <-c.out:
			default:
			}
		}
	}
}

func (c *client) sendError(msg string) {
	c.send(map[string]interface{}{"type": "error", "message": msg})
}

func (c *client) sendGameError(msg string) {
	c.send(map[string]interface{}{"type": "game_error", "message": msg})
}

func (c *client) currentLobby() *lobby.Lobby {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby
}

func (c *client) currentSession() *game.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *client) setLobby(l *lobby.Lobby) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby = l
}

func (c *client) setSession(s *game.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby = nil
	c.session = s
}

// Gateway owns every live connection and routes frames between clients, the
// lobby manager and the session registry.
type Gateway struct {
	logger   *logrus.Logger
	manager  *lobby.Manager
	registry *game.Registry
	recorder game.Recorder

	mu        sync.Mutex
	clients   map[uuid.UUID]*client
	inSession map[uuid.UUID]uuid.UUID // playerID -> sessionID
}

func NewGateway(logger *logrus.Logger, manager *lobby.Manager, registry *game.Registry, recorder game.Recorder) *Gateway {
	return &Gateway{
		logger:    logger,
		manager:   manager,
		registry:  registry,
		recorder:  recorder,
		clients:   make(map[uuid.UUID]*client),
		inSession: make(map[uuid.UUID]uuid.UUID),
	}
}

func (gw *Gateway) register(c *client) {
	gw.mu.Lock()
	old := gw.clients[c.identity.ID]
	gw.clients[c.identity.ID] = c
	gw.mu.Unlock()
	if old != nil && old != c {
		// The same identity connected again; the stale connection dies.
		old.cancel()
	}
}

func (gw *Gateway) unregister(c *client) {
	gw.mu.Lock()
	if cur, ok := gw.clients[c.identity.ID]; ok && cur == c {
		delete(gw.clients, c.identity.ID)
	}
	gw.mu.Unlock()
}

func (gw *Gateway) sendTo(playerID uuid.UUID, frame map[string]interface{}) {
	gw.mu.Lock()
	c, ok := gw.clients[playerID]
	gw.mu.Unlock()
	if ok {
		c.send(frame)
	}
}

// sessionFor resolves the session a player belongs to, if any.
func (gw *Gateway) sessionFor(playerID uuid.UUID) (*game.Session, bool) {
	gw.mu.Lock()
	sid, ok := gw.inSession[playerID]
	gw.mu.Unlock()
	if !ok {
		return nil, false
	}
	return gw.registry.Get(sid)
}

// bindSession hooks a freshly started session into the gateway: broadcast
// fanout, persistence, and the player-to-session index.
func (gw *Gateway) bindSession(s *game.Session) {
	playerIDs := make([]uuid.UUID, len(s.Slots))
	for i, slot := range s.Slots {
		playerIDs[i] = slot.Identity.ID
	}

	s.BroadcastFn = func(frame map[string]interface{}) {
		for _, pid := range playerIDs {
			gw.sendTo(pid, frame)
		}
	}
	s.BroadcastToPlayerFn = gw.sendTo
	s.Recorder = gw.recorder
	s.OnFinished = func(done *game.Session) {
		gw.mu.Lock()
		for _, pid := range playerIDs {
			if gw.inSession[pid] == done.ID {
				delete(gw.inSession, pid)
			}
		}
		gw.mu.Unlock()
	}

	gw.mu.Lock()
	for _, pid := range playerIDs {
		gw.inSession[pid] = s.ID
	}
	for _, pid := range playerIDs {
		if c, ok := gw.clients[pid]; ok {
			c.setSession(s)
		}
	}
	gw.mu.Unlock()
}

// WSHandler upgrades the connection, authenticates the player (minting a
// guest identity when no valid token is presented) and runs the pumps.
func (gw *Gateway) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := gw.ensureIdentity(w, r)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			gw.logger.Warnf("WebSocket accept error for player %s: %v", identity.ID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}
		gw.logger.Infof("Player %s (%s) connected from %s", identity.ID, identity.DisplayName, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		cl := &client{
			identity: identity,
			conn:     c,
			cancel:   cancel,
			out:      make(chan map[string]interface{}, outQueueSize),
		}
		gw.register(cl)

		// A returning player with a live game gets resynced immediately.
		if s, ok := gw.sessionFor(identity.ID); ok {
			if s.HandleReconnect(identity.ID) {
				cl.setSession(s)
			} else {
				cl.sendGameError(game.ErrGameNotFound.Error())
			}
		}

		go gw.writePump(ctx, cl)
		gw.readPump(ctx, cl)

		// Cleanup after the read loop exits.
		gw.logger.Infof("Player %s read loop exited", identity.ID)
		gw.teardown(cl)
	}
}

// teardown releases a connection's presence. When the same identity has
// already reconnected, the replacement owns the clients entry and this
// stale connection must not unseat the live player.
func (gw *Gateway) teardown(cl *client) {
	gw.mu.Lock()
	current := gw.clients[cl.identity.ID] == cl
	gw.mu.Unlock()
	if current {
		if l := cl.currentLobby(); l != nil {
			l.RemoveUser(cl.identity.ID)
		}
		if s := cl.currentSession(); s != nil {
			s.HandleDisconnect(cl.identity.ID)
		}
	}
	gw.unregister(cl)
}

// ensureIdentity authenticates the request, minting an ephemeral guest
// identity (and cookie) when no valid token is presented.
func (gw *Gateway) ensureIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	}
	if token != "" {
		identity, err := auth.AuthenticateJWT(token)
		if err == nil {
			return identity, nil
		}
		gw.logger.Warnf("Rejecting stale token: %v", err)
	}

	guest := models.Identity{
		ID:          uuid.New(),
		DisplayName: "Guest-" + uuid.NewString()[:4],
	}
	newToken, err := auth.CreateJWT(guest)
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to mint guest token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
	})
	return guest, nil
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings.
func (gw *Gateway) writePump(ctx context.Context, cl *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-cl.out:
			data, err := json.Marshal(frame)
			if err != nil {
				gw.logger.Errorf("Failed to marshal frame for player %s: %v", cl.identity.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = cl.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				gw.logger.Warnf("Write failed for player %s: %v", cl.identity.ID, err)
				cl.cancel()
				return
			}
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := cl.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				gw.logger.Warnf("Ping failed for player %s: %v", cl.identity.ID, err)
				cl.cancel()
				return
			}
		}
	}
}

// readPump reads frames until the connection dies and dispatches each one.
func (gw *Gateway) readPump(ctx context.Context, cl *client) {
	for {
		msgType, data, err := cl.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				gw.logger.Infof("WebSocket closed normally for player %s", cl.identity.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				gw.logger.Infof("WebSocket context canceled for player %s", cl.identity.ID)
			} else {
				gw.logger.Warnf("Read error for player %s: %v (status %d)", cl.identity.ID, err, status)
			}
			return
		}
		if msgType != websocket.MessageText {
			gw.logger.Warnf("Ignoring non-text message from player %s", cl.identity.ID)
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			gw.logger.Warnf("Invalid JSON from player %s: %v", cl.identity.ID, err)
			cl.sendError("invalid JSON")
			continue
		}
		gw.dispatch(cl, &frame)
	}
}

func (gw *Gateway) dispatch(cl *client, frame *inboundFrame) {
	switch frame.Type {
	case "heartbeat":
		cl.send(map[string]interface{}{"type": "heartbeat_ack"})

	case "join_channel_lobby":
		gw.handleJoinChannel(cl, frame.Channel, frame.Guild)

	case "create_custom_lobby":
		gw.handleCreateCustom(cl, frame.Settings)

	case "join_custom_lobby":
		gw.handleJoinCustom(cl, frame.Code)

	case "leave_lobby":
		gw.handleLeaveLobby(cl)

	case "start_game":
		gw.handleStartGame(cl)

	case "submit_word":
		s := cl.currentSession()
		if s == nil {
			cl.sendGameError(game.ErrGameNotFound.Error())
			return
		}
		if err := s.Submit(cl.identity.ID, positionsFromPairs(frame.Path)); err != nil {
			cl.sendGameError(err.Error())
		}

	case "skip_turn":
		s := cl.currentSession()
		if s == nil {
			cl.sendGameError(game.ErrGameNotFound.Error())
			return
		}
		if err := s.Skip(cl.identity.ID); err != nil {
			cl.sendGameError(err.Error())
		}

	case "admin_get_games":
		gw.handleAdminGetGames(cl)

	case "admin_delete_game":
		gw.handleAdminDeleteGame(cl, frame.SessionID)

	default:
		gw.logger.Warnf("Unknown frame type %q from player %s", frame.Type, cl.identity.ID)
		cl.sendError(fmt.Sprintf("unknown frame type: %s", frame.Type))
	}
}

func (gw *Gateway) handleJoinChannel(cl *client, channel, guild string) {
	if channel == "" {
		cl.sendError("channel is required")
		return
	}
	// A channel room is scoped to its guild when one is given, so the same
	// channel name in two guilds never collides.
	roomKey := channel
	if guild != "" {
		roomKey = guild + ":" + channel
	}
	if prev := cl.currentLobby(); prev != nil && prev.RoomKey != roomKey {
		prev.RemoveUser(cl.identity.ID)
		cl.setLobby(nil)
	}
	l, err := gw.manager.JoinChannel(roomKey)
	if err != nil {
		cl.sendError(err.Error())
		return
	}
	gw.seat(cl, l)
}

func (gw *Gateway) handleCreateCustom(cl *client, settings *frameSettings) {
	if prev := cl.currentLobby(); prev != nil {
		prev.RemoveUser(cl.identity.ID)
		cl.setLobby(nil)
	}
	var override *game.Settings
	if settings != nil {
		s := settings.apply(gw.manager.Defaults())
		override = &s
	}
	l, err := gw.manager.CreateCustom(override)
	if err != nil {
		cl.sendError(err.Error())
		return
	}
	cl.send(map[string]interface{}{
		"type":       "lobby_created",
		"lobby_code": l.RoomKey,
	})
	gw.seat(cl, l)
}

func (gw *Gateway) handleJoinCustom(cl *client, code string) {
	if code == "" {
		cl.sendError("code is required")
		return
	}
	if prev := cl.currentLobby(); prev != nil {
		prev.RemoveUser(cl.identity.ID)
		cl.setLobby(nil)
	}
	l, err := gw.manager.GetCustom(strings.ToUpper(code))
	if err != nil {
		cl.sendError(err.Error())
		return
	}
	gw.seat(cl, l)
}

// seat attaches the client to a lobby, bridging its outbound queue.
func (gw *Gateway) seat(cl *client, l *lobby.Lobby) {
	conn := &lobby.LobbyConnection{
		PlayerID: cl.identity.ID,
		OutChan:  cl.out,
	}
	if err := l.AddConnection(cl.identity, conn); err != nil {
		cl.sendError(err.Error())
		return
	}
	cl.setLobby(l)
}

func (gw *Gateway) handleLeaveLobby(cl *client) {
	l := cl.currentLobby()
	if l == nil {
		cl.sendError("not in a lobby")
		return
	}
	l.RemoveUser(cl.identity.ID)
	cl.setLobby(nil)
}

func (gw *Gateway) handleStartGame(cl *client) {
	l := cl.currentLobby()
	if l == nil {
		cl.sendError("not in a lobby")
		return
	}
	s, err := gw.manager.StartGame(l.RoomKey, cl.identity.ID)
	if err != nil {
		cl.sendError(err.Error())
		return
	}
	gw.bindSession(s)
	s.Start()
}

// extractCookieToken extracts a named cookie value from a Cookie header, or
// returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
