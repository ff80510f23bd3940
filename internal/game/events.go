// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/spellgrid/gridspell/internal/models"
)

// PlayerInfo is the public view of a player slot carried in broadcast frames.
type PlayerInfo struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	TurnOrder   int       `json:"turn_order"`
	Score       int       `json:"score"`
	Connected   bool      `json:"connected"`
}

func (s *Session) playerInfosUnsafe() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.Removed {
			continue
		}
		infos = append(infos, PlayerInfo{
			ID:          slot.Identity.ID,
			DisplayName: slot.Identity.DisplayName,
			AvatarRef:   slot.Identity.AvatarRef,
			TurnOrder:   slot.TurnOrder,
			Score:       slot.Score,
			Connected:   slot.Connected,
		})
	}
	return infos
}

func (s *Session) currentPlayerIDUnsafe() uuid.UUID {
	idx := s.Ledger.Current()
	if idx < 0 || idx >= len(s.Slots) {
		return uuid.Nil
	}
	return s.Slots[idx].Identity.ID
}

// gameStartedFrameUnsafe announces the initial grid and turn order.
func (s *Session) gameStartedFrameUnsafe() map[string]interface{} {
	return map[string]interface{}{
		"type":              "game_started",
		"session_id":        s.ID,
		"grid":              s.Grid,
		"players":           s.playerInfosUnsafe(),
		"round":             s.Ledger.Round(),
		"total_rounds":      s.Ledger.MaxRounds(),
		"current_player_id": s.currentPlayerIDUnsafe(),
	}
}

// gameStateFrameUnsafe is the full resync snapshot sent on reconnect and at
// round boundaries.
func (s *Session) gameStateFrameUnsafe() map[string]interface{} {
	used := make([]string, 0, len(s.UsedWords))
	for w := range s.UsedWords {
		used = append(used, w)
	}
	return map[string]interface{}{
		"type":              "game_state",
		"session_id":        s.ID,
		"status":            s.Status,
		"grid":              s.Grid,
		"players":           s.playerInfosUnsafe(),
		"round":             s.Ledger.Round(),
		"total_rounds":      s.Ledger.MaxRounds(),
		"current_player_id": s.currentPlayerIDUnsafe(),
		"used_words":        used,
	}
}

func wordScoredFrame(playerID uuid.UUID, word string, points, total int, path []models.Position) map[string]interface{} {
	return map[string]interface{}{
		"type":      "word_scored",
		"player_id": playerID,
		"word":      word,
		"points":    points,
		"new_total": total,
		"path":      path,
	}
}

func invalidWordFrame(reason RejectReason) map[string]interface{} {
	return map[string]interface{}{
		"type":   "invalid_word",
		"reason": reason,
	}
}

func turnUpdateFrame(currentPlayer, previousPlayer uuid.UUID, round int, reason string) map[string]interface{} {
	frame := map[string]interface{}{
		"type":           "turn_update",
		"current_player": currentPlayer,
		"round":          round,
	}
	if previousPlayer != uuid.Nil {
		frame["previous_player"] = previousPlayer
	}
	if reason != "" {
		frame["reason"] = reason
	}
	return frame
}

// scoresUnsafe maps every seated player to their running total.
func (s *Session) scoresUnsafe() map[string]int {
	scores := make(map[string]int, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.Removed {
			continue
		}
		scores[slot.Identity.ID.String()] = slot.Score
	}
	return scores
}

func (s *Session) roundEndFrameUnsafe(completedRound int) map[string]interface{} {
	return map[string]interface{}{
		"type":       "round_end",
		"session_id": s.ID,
		"round":      completedRound,
		"scores":     s.scoresUnsafe(),
	}
}

func (s *Session) gameOverFrameUnsafe(winners []uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"type":         "game_over",
		"session_id":   s.ID,
		"winner_ids":   winners,
		"final_scores": s.scoresUnsafe(),
	}
}
