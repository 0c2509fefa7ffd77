// Package handlers serves the contest program over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/malbeclabs/fitfreak/api/handlers/dberror"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
)

const defaultMaxBodyBytes = 64 << 10

type Config struct {
	Logger       *slog.Logger
	Program      *contest.Program
	MaxBodyBytes int64
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Program == nil {
		return errors.New("program is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return nil
}

type Handlers struct {
	log  *slog.Logger
	cfg  Config
	prog *contest.Program
}

func New(cfg Config) (*Handlers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Handlers{log: cfg.Logger, cfg: cfg, prog: cfg.Program}, nil
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("handlers: failed to write response", "error", err)
	}
}

// StatusFor maps a program error kind to an HTTP status.
func StatusFor(kind contest.Kind) int {
	switch kind {
	case contest.KindState, contest.KindAllocation:
		return http.StatusConflict
	case contest.KindAuthorization:
		return http.StatusForbidden
	case contest.KindNotFound:
		return http.StatusNotFound
	case contest.KindValidation:
		return http.StatusBadRequest
	case contest.KindFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		h.writeJSON(w, reqErr.status, ErrorResponse{Error: reqErr.code, Message: err.Error()})
		return
	}
	if perr, ok := contest.AsError(err); ok {
		h.writeJSON(w, StatusFor(perr.Kind), ErrorResponse{Error: perr.Code, Kind: string(perr.Kind), Message: err.Error()})
		return
	}

	if dberror.IsTransient(err) {
		h.log.Warn("handlers: ledger unavailable", "path", r.URL.Path, "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Unavailable", Message: dberror.UserMessage(err)})
		return
	}

	h.log.Error("handlers: request failed", "path", r.URL.Path, "error", err)
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal", Message: dberror.UserMessage(err)})
}
