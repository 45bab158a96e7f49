package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the database health probe and the client log sink.
type SystemHandler struct {
	DB Pinger
}

type clientLog struct {
	Level   string          `json:"level"`
	Message string          `json:"message"`
	Context json.RawMessage `json:"context"`
}

func (h *SystemHandler) Register(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/logs", h.clientLogs)
}

func (h *SystemHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health check")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "up"})
}

func (h *SystemHandler) clientLogs(w http.ResponseWriter, r *http.Request) {
	var req clientLog
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid json"))
		return
	}

	lvl := zerolog.InfoLevel
	switch strings.ToLower(req.Level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	ev := hlog.FromRequest(r).WithLevel(lvl).Str("source", "client")
	if len(req.Context) > 0 && json.Valid(req.Context) {
		ev = ev.RawJSON("context", req.Context)
	}
	ev.Msg(req.Message)
	w.WriteHeader(http.StatusNoContent)
}
