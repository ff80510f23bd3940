// internal/handlers/frames.go
package handlers

import (
	"time"

	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/models"
)

// inboundFrame is the envelope for every client-to-server message. Fields
// beyond Type are populated per frame type; unknown fields are ignored.
type inboundFrame struct {
	Type string `json:"type"`

	// Channel and the optional Guild name an open channel room
	// (join_channel_lobby).
	Channel string `json:"channel,omitempty"`
	Guild   string `json:"guild,omitempty"`

	// Code is a custom lobby invite code (join_custom_lobby).
	Code string `json:"code,omitempty"`

	// Path is the tile path of a submit_word frame, as [row, col] pairs in
	// traversal order.
	Path [][2]int `json:"path,omitempty"`

	// SessionID targets a session in admin frames.
	SessionID string `json:"session_id,omitempty"`

	// Settings optionally overrides game defaults on create_custom_lobby.
	Settings *frameSettings `json:"settings,omitempty"`
}

// frameSettings is the client-facing shape of game.Settings. Pointers keep
// "absent" distinguishable from zero.
type frameSettings struct {
	Rounds          *int  `json:"rounds,omitempty"`
	TurnTimerSec    *int  `json:"turn_timer_sec,omitempty"`
	RegenerateGrid  *bool `json:"regenerate_grid,omitempty"`
	RetainUsedWords *bool `json:"retain_used_words,omitempty"`
}

// apply overlays the provided fields onto defaults.
func (fs *frameSettings) apply(defaults game.Settings) game.Settings {
	out := defaults
	if fs == nil {
		return out
	}
	if fs.Rounds != nil && *fs.Rounds > 0 {
		out.Rounds = *fs.Rounds
	}
	if fs.TurnTimerSec != nil && *fs.TurnTimerSec >= 0 {
		out.TurnTimeout = time.Duration(*fs.TurnTimerSec) * time.Second
	}
	if fs.RegenerateGrid != nil {
		out.RegenerateGrid = *fs.RegenerateGrid
	}
	if fs.RetainUsedWords != nil {
		out.RetainUsedWords = *fs.RetainUsedWords
	}
	return out
}

// positionsFromPairs converts wire [row, col] pairs into grid positions.
func positionsFromPairs(pairs [][2]int) []models.Position {
	path := make([]models.Position, len(pairs))
	for i, p := range pairs {
		path[i] = models.Position{Row: p[0], Col: p[1]}
	}
	return path
}
