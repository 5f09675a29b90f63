package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"danmusync/internal/logging"
)

const maxPayloadBytes = 1 << 20

// Server is the HTTP intake for Emby webhook notifications.
type Server struct {
	bind       string
	token      string
	dispatcher *Dispatcher
	logger     *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds the webhook listener. The token is optional; when set,
// requests must carry it as a bearer token or ?token= query parameter.
func NewServer(bind, token string, dispatcher *Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:       strings.TrimSpace(bind),
		token:      strings.TrimSpace(token),
		dispatcher: dispatcher,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/emby", srv.handleEmby)
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("webhook bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("webhook server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleEmby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorized(r) {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	notification, err := Parse(body)
	if err != nil {
		if Skippable(err) {
			s.logger.Debug("webhook ignored", slog.String("reason", err.Error()))
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": err.Error()})
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.dispatcher.Dispatch(r.Context(), notification)
	if err != nil {
		s.logger.Error("webhook dispatch failed",
			slog.String("title", notification.Title),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := map[string]any{
		"status":        "ok",
		"matched":       outcome.Matched(),
		"asset_present": outcome.AssetPresent,
	}
	if outcome.Matched() {
		response["strategy"] = string(outcome.Strategy)
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") && strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")) == s.token {
		return true
	}
	return r.URL.Query().Get("token") == s.token
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
