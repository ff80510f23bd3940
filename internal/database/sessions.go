// internal/database/sessions.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordSessionStarted inserts the game row and one game_players row per
// seat, in turn order.
func RecordSessionStarted(ctx context.Context, gameID uuid.UUID, roomKey string, playerIDs []uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertGame := `
			INSERT INTO games (id, room_key, status)
			VALUES ($1, $2, 'in_progress')
			ON CONFLICT (id) DO NOTHING
		`
		if _, e := tx.Exec(ctx, insertGame, gameID, roomKey); e != nil {
			return e
		}
		for order, pid := range playerIDs {
			q := `
				INSERT INTO game_players (game_id, player_id, turn_order)
				VALUES ($1, $2, $3)
				ON CONFLICT (game_id, player_id) DO NOTHING
			`
			if _, e := tx.Exec(ctx, q, gameID, pid, order); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert game start: %w", err)
	}
	return nil
}

// RecordMove appends one scored word to game_moves.
func RecordMove(ctx context.Context, gameID, playerID uuid.UUID, word string, points, round int) error {
	q := `
		INSERT INTO game_moves (game_id, player_id, word, points, round)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := DB.Exec(ctx, q, gameID, playerID, word, points, round); err != nil {
		return fmt.Errorf("insert game move: %w", err)
	}
	return nil
}

// RecordSessionEnded marks the game finished or abandoned and writes final
// scores plus winner flags.
func RecordSessionEnded(ctx context.Context, gameID uuid.UUID, outcome string, winners []uuid.UUID, finalScores map[uuid.UUID]int) error {
	won := make(map[uuid.UUID]bool, len(winners))
	for _, w := range winners {
		won[w] = true
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		updateGame := `
			UPDATE games SET status = $2, ended_at = now()
			WHERE id = $1
		`
		if _, e := tx.Exec(ctx, updateGame, gameID, outcome); e != nil {
			return e
		}
		for pid, score := range finalScores {
			q := `
				UPDATE game_players SET final_score = $3, did_win = $4
				WHERE game_id = $1 AND player_id = $2
			`
			if _, e := tx.Exec(ctx, q, gameID, pid, score, won[pid]); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record game end: %w", err)
	}
	return nil
}
