// Package httpapi exposes the assistant over a small JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/internal/service/agent"
	"github.com/sandevgo/shopclerk/pkg/log"
)

const maxChatBodySize = 64 << 10

type Server struct {
	agent *agent.Orchestrator
	srv   *http.Server
}

func NewServer(addr string, orchestrator *agent.Orchestrator) *Server {
	s := &Server{agent: orchestrator}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/conversations/{id}", s.handleHistory)
	r.Delete("/api/conversations/{id}", s.handleClear)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.srv.Addr).Msg("starting http api")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
	defer r.Body.Close()

	var req core.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.agent.ProcessRequest(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "message must not be empty")
			return
		}
		log.FromCtx(r.Context()).Error().Err(err).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	messages := s.agent.GetConversationHistory(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"conversationId": id,
		"messages":       messages,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.agent.ClearConversation(id) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
