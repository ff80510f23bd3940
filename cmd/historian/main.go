// cmd/historian/main.go is an asynchronous consumer that pops scored-move
// records from the Redis queue and persists them to PostgreSQL in batches.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/spellgrid/gridspell/internal/cache"
	"github.com/spellgrid/gridspell/internal/database"
)

// HistorianService encapsulates the Redis + DB logic for draining the move
// queue into game_moves.
type HistorianService struct {
	redisClient *redis.Client
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []cache.MoveRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]cache.MoveRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects the database and drains the queue until a signal arrives.
func (hs *HistorianService) Run() {
	database.ConnectDB()

	go hs.readRedisLoop()

	log.Println("gridspell-historian service started.")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	log.Println("gridspell-historian shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve move records from the
// Redis queue, flushing on a timer as well as on batch size.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a short timeout so shutdown is handled promptly.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if hs.ctx.Err() != nil {
					return
				}
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.MoveRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid move record: %v\n", err)
				continue
			}
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the
// threshold is reached.
func (hs *HistorianService) appendToBatch(record cache.MoveRecord) {
	hs.batchMu.Lock()
	shouldFlush := false
	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.batchSize {
		shouldFlush = true
	}
	hs.batchMu.Unlock()
	if shouldFlush {
		hs.flushBatchToDB()
	}
}

// flushBatchToDB writes the current batch in a single transaction.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.MoveRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertMoveTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertMoveTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flushBatchToDB: %v\n", err)
	} else {
		log.Printf("Flushed %d moves to DB.\n", len(batchCopy))
	}
}

// insertMoveTx inserts one scored word into game_moves, creating the game
// row if the server's own insert has not landed yet.
func insertMoveTx(ctx context.Context, tx pgx.Tx, rec cache.MoveRecord) error {
	upsertGame := `
		INSERT INTO games (id, status)
		VALUES ($1, 'in_progress')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGame, rec.GameID); err != nil {
		return err
	}
	insertMove := `
		INSERT INTO game_moves (game_id, player_id, word, points, round, played_at)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
	`
	_, err := tx.Exec(ctx, insertMove, rec.GameID, rec.PlayerID, rec.Word, rec.Points, rec.Round, rec.Timestamp)
	return err
}

func main() {
	hs := NewHistorianService()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		hs.cancelFn()
	}()

	hs.Run()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
