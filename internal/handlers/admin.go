// internal/handlers/admin.go
package handlers

import (
	"github.com/google/uuid"

	"github.com/spellgrid/gridspell/internal/game"
)

// handleAdminGetGames lists every live session with its resync snapshot.
// Admin frames ride the same connection as play frames but require the
// admin claim.
func (gw *Gateway) handleAdminGetGames(cl *client) {
	if !cl.identity.IsAdmin {
		cl.sendError("admin privileges required")
		return
	}
	sessions := gw.registry.List()
	games := make([]map[string]interface{}, 0, len(sessions))
	for _, s := range sessions {
		games = append(games, s.Snapshot())
	}
	cl.send(map[string]interface{}{
		"type":  "admin_games",
		"games": games,
	})
}

// handleAdminDeleteGame force-ends a session and removes it from the
// registry. Players still connected receive the game_over broadcast from the
// abandon path.
func (gw *Gateway) handleAdminDeleteGame(cl *client, sessionIDStr string) {
	if !cl.identity.IsAdmin {
		cl.sendError("admin privileges required")
		return
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		cl.sendError("invalid session_id")
		return
	}
	s, ok := gw.registry.Get(sessionID)
	if !ok {
		cl.sendGameError(game.ErrGameNotFound.Error())
		return
	}
	gw.logger.Warnf("Admin %s deleting game %s", cl.identity.ID, sessionID)
	s.Abandon()
	gw.registry.Remove(sessionID)
	cl.send(map[string]interface{}{
		"type":       "admin_game_deleted",
		"session_id": sessionID.String(),
	})
}
