// internal/handlers/recorder.go
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spellgrid/gridspell/internal/cache"
	"github.com/spellgrid/gridspell/internal/database"
)

// persistRecorder implements game.Recorder against Postgres and the Redis
// move queue. Every call is already fire-and-forget from the session's point
// of view, so failures are logged and swallowed.
type persistRecorder struct {
	logger *logrus.Logger
}

// NewRecorder returns the standard persistence recorder.
func NewRecorder(logger *logrus.Logger) *persistRecorder {
	return &persistRecorder{logger: logger}
}

func (r *persistRecorder) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (r *persistRecorder) SessionStarted(gameID uuid.UUID, roomKey string, playerIDs []uuid.UUID) {
	if !database.Enabled() {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := database.RecordSessionStarted(ctx, gameID, roomKey, playerIDs); err != nil {
		r.logger.Warnf("Failed to record game start for %s: %v", gameID, err)
	}
}

func (r *persistRecorder) MoveScored(gameID, playerID uuid.UUID, word string, points, round int) {
	if cache.Rdb == nil {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	err := cache.PublishMove(ctx, cache.MoveRecord{
		GameID:    gameID,
		PlayerID:  playerID,
		Word:      word,
		Points:    points,
		Round:     round,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		r.logger.Warnf("Failed to queue move for game %s: %v", gameID, err)
	}
}

func (r *persistRecorder) SessionEnded(gameID uuid.UUID, outcome string, winners []uuid.UUID, finalScores map[uuid.UUID]int) {
	if !database.Enabled() {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := database.RecordSessionEnded(ctx, gameID, outcome, winners, finalScores); err != nil {
		r.logger.Warnf("Failed to record game end for %s: %v", gameID, err)
	}
}
