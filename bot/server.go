package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Server exposes the command surface over HTTP for the chat-platform
// connector. The connector is expected to issue one command at a time per
// workspace; concurrent commands for the same item are not guarded.
type Server struct {
	handler *Handler
	logger  *logrus.Logger
	srv     *http.Server
}

type commandRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Command     string `json:"command"`
	Text        string `json:"text"`
}

type commandResponse struct {
	Reply string `json:"reply"`
}

// NewServer builds the HTTP server on the given listen address.
func NewServer(addr string, handler *Handler, logger *logrus.Logger) *Server {
	s := &Server{handler: handler, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Post("/v1/commands", s.handleCommand)

	s.srv = &http.Server{Addr: addr, Handler: r}
	return s
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.WorkspaceID == "" || req.Command == "" {
		http.Error(w, `{"error":"workspace_id and command are required"}`, http.StatusBadRequest)
		return
	}

	reply, err := s.handler.Handle(r.Context(), req.WorkspaceID, req.Command, req.Text)
	if err != nil {
		s.logger.Errorf("[server] command %q failed for workspace %s: %v", req.Command, req.WorkspaceID, err)
		http.Error(w, `{"error":"command failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(commandResponse{Reply: reply})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info("[server] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("[server] listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
