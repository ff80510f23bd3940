// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/spellgrid/gridspell/internal/auth"
	"github.com/spellgrid/gridspell/internal/game"
	"github.com/spellgrid/gridspell/internal/lobby"
	"github.com/spellgrid/gridspell/internal/middleware"
	"github.com/spellgrid/gridspell/internal/models"
)

// Server ties the gateway, lobby manager and session registry together
// behind an HTTP router.
type Server struct {
	Logger   *logrus.Logger
	Manager  *lobby.Manager
	Registry *game.Registry
	Gateway  *Gateway
}

func NewServer(logger *logrus.Logger, manager *lobby.Manager, registry *game.Registry, recorder game.Recorder) *Server {
	return &Server{
		Logger:   logger,
		Manager:  manager,
		Registry: registry,
		Gateway:  NewGateway(logger, manager, registry, recorder),
	}
}

// Router builds the HTTP surface: health, guest token minting, and the
// WebSocket endpoint everything else rides on.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(s.Logger))
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/auth/guest", s.GuestTokenHandler).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.Gateway.WSHandler())
	return r
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GuestTokenHandler mints a token for a display name chosen up front, so
// clients can pick a name before opening the socket.
func (s *Server) GuestTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
		AvatarRef   string `json:"avatar_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = "Guest-" + uuid.NewString()[:4]
	}

	identity := models.Identity{
		ID:          uuid.New(),
		DisplayName: req.DisplayName,
		AvatarRef:   req.AvatarRef,
	}
	token, err := auth.CreateJWT(identity)
	if err != nil {
		s.Logger.Errorf("Failed to mint guest token: %v", err)
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"token":     token,
		"player_id": identity.ID.String(),
	})
}
