// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spellgrid/gridspell/internal/auth"
	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/cache"
	"github.com/spellgrid/gridspell/internal/database"
	"github.com/spellgrid/gridspell/internal/dictionary"
	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/handlers"
	"github.com/spellgrid/gridspell/internal/lobby"
)

var (
	flagAddr     string
	flagWordList string
)

var rootCmd = &cobra.Command{
	Use:   "gridspell",
	Short: "Real-time multiplayer word game server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE:  runServe,
}

func init() {
	defaultAddr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		defaultAddr = ":" + port
	}
	defaultWordList := os.Getenv("DICTIONARY_PATH")
	if defaultWordList == "" {
		defaultWordList = "words.txt"
	}

	serveCmd.Flags().StringVar(&flagAddr, "addr", defaultAddr, "listen address")
	serveCmd.Flags().StringVar(&flagWordList, "wordlist", defaultWordList, "path to the dictionary word list")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if priv, pub := os.Getenv("JWT_PRIVATE_KEY_FILE"), os.Getenv("JWT_PUBLIC_KEY_FILE"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			return err
		}
	} else {
		auth.Init()
	}

	lexicon, err := dictionary.Load(flagWordList)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d dictionary words from %s", lexicon.Len(), flagWordList)

	// Persistence is optional: the game runs fully in memory without it.
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
	} else {
		logger.Warn("PG_HOST not set, game results will not be persisted")
	}
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("Redis unavailable, move history disabled: %v", err)
		}
	} else {
		logger.Warn("REDIS_ADDR not set, move history disabled")
	}

	registry := game.NewRegistry()
	go registry.RunJanitor(context.Background())

	defaults := game.DefaultSettings()
	if rounds := getEnvInt("DEFAULT_ROUNDS", 0); rounds > 0 {
		defaults.Rounds = rounds
	}
	if sec := getEnvInt("TURN_TIMER_SEC", -1); sec >= 0 {
		defaults.TurnTimeout = time.Duration(sec) * time.Second
	}

	manager := lobby.NewManager(registry, board.NewGenerator(), lexicon, defaults)
	srv := handlers.NewServer(logger, manager, registry, handlers.NewRecorder(logger))

	logger.Infof("Running on %s", flagAddr)
	return http.ListenAndServe(flagAddr, srv.Router())
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
