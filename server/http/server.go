// Package http exposes the REST surface: account registration and login,
// game lifecycle management, and a health probe. Realtime traffic does not
// go through here; it lives on the websocket endpoint.
package http

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"gamehub/errors"
	"gamehub/runtime"
	"gamehub/services"
)

type Server struct {
	log         *slog.Logger
	authService services.IAuthService
	router      *runtime.Router
	cookieTTL   time.Duration
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	router *runtime.Router, cookieTTL time.Duration) *Server {
	return &Server{
		log:         log,
		authService: authService,
		router:      router,
		cookieTTL:   cookieTTL,
	}
}

// Register wires every route onto the mux, including the websocket handler
// supplied by the caller.
func (s *Server) Register(mux *http.ServeMux, wsHandler http.Handler) {
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("POST /games/join", s.handleJoinGame)
	mux.HandleFunc("GET /games", s.handleListGames)
	mux.HandleFunc("DELETE /games/{id}", s.handleStopGame)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /ws", wsHandler)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	creds, err := s.authService.Register(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.setAuthCookie(w, creds.Token)
	s.writeJSON(w, http.StatusCreated, credentialsResponse{UserID: creds.UserID, Token: creds.Token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	creds, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.setAuthCookie(w, creds.Token)
	s.writeJSON(w, http.StatusOK, credentialsResponse{UserID: creds.UserID, Token: creds.Token})
}

type createGameRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type createGameResponse struct {
	GameID string `json:"gameId"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !s.decode(w, r, &req) {
		return
	}

	gameID := s.router.Create(req.PlayerID, req.Name)
	s.writeJSON(w, http.StatusCreated, createGameResponse{GameID: gameID})
}

type joinGameRequest struct {
	PlayerID string `json:"playerId"`
	GameID   string `json:"gameId"`
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.router.Join(req.PlayerID, req.GameID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.router.List())
}

func (s *Server) handleStopGame(w http.ResponseWriter, r *http.Request) {
	if err := s.router.Stop(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "authToken",
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrNoSuchGame):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		status = http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrInvalidPassword):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
