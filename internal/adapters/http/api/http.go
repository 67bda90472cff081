// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/quipodium/internal/app"
	"github.com/okian/quipodium/internal/domain/ranking"
	"github.com/okian/quipodium/pkg/logger"
)

// maxBodyBytes caps how much of a request body is read.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	PromptDependencies
	UtilsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	playerHandler *PlayerHandler
	promptHandler *PromptHandler
	utilsHandler  *UtilsHandler

	requestTimeout time.Duration
	// limiter throttles routes that call paid external services.
	limiter *ClientRateLimiter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRequestTimeout bounds the context of every business request.
// Zero disables the bound.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d >= 0 {
			s.requestTimeout = d
		}
	}
}

// WithRateLimit allows each client perSecond requests, with the given
// burst, on routes that reach the translation or suggestion services.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond > 0 {
			s.limiter = NewClientRateLimiter(perSecond, burst)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		playerHandler: NewPlayerHandler(deps),
		promptHandler: NewPromptHandler(deps),
		utilsHandler:  NewUtilsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/player/register", s.route(s.playerHandler.HandleRegister, "player_register"))
	mux.HandleFunc("/player/login", s.route(s.playerHandler.HandleLogin, "player_login"))
	mux.HandleFunc("/player/update", s.route(s.playerHandler.HandleUpdate, "player_update"))

	mux.HandleFunc("/prompt/create", s.route(RateLimitMiddleware(s.promptHandler.HandleCreate, s.limiter), "prompt_create"))
	mux.HandleFunc("/prompt/delete", s.route(s.promptHandler.HandleDelete, "prompt_delete"))
	mux.HandleFunc("/prompt/suggest", s.route(RateLimitMiddleware(s.promptHandler.HandleSuggest, s.limiter), "prompt_suggest"))

	mux.HandleFunc("/utils/get", s.route(s.utilsHandler.HandleGetPrompts, "utils_get"))
	mux.HandleFunc("/utils/podium", s.route(s.utilsHandler.HandlePodium, "utils_podium"))

	logger.Get().Debug(ctx, "api routes registered", logger.Int("timeoutMs", int(s.requestTimeout.Milliseconds())))
}

func (s *Server) route(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(TimeoutMiddleware(next, s.requestTimeout), endpoint)
}

// envelope is the response shape of every command route.
type envelope struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Result: true, Msg: msg})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a handler error onto a response. Rejected requests get
// the envelope with the caller-facing message; everything else is logged
// and reported without internal detail.
func writeFailure(r *http.Request, w http.ResponseWriter, err error) {
	var ce *service.ClientError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, clientStatus(ce), envelope{Result: false, Msg: ce.Msg})
	case errors.Is(err, ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, envelope{Result: false, Msg: "Invalid request body"})
	case errors.Is(err, ranking.ErrInvalidSnapshot):
		logger.Get().Error(r.Context(), "podium snapshot rejected", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "invalid_snapshot", errors.New("player snapshot failed validation"))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", nil)
	default:
		logger.Get().Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func clientStatus(ce *service.ClientError) int {
	switch {
	case errors.Is(ce.Kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(ce.Kind, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// allowMethods reports whether r uses one of methods and answers 405
// otherwise.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethod)
	return false
}

// decodeBody reads a JSON object into v. Bodies that are a JSON string
// holding the object are unwrapped first, and GET requests may carry a body.
func decodeBody(op string, r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return WrapKind(op, ErrBadRequest, err)
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 {
		return WrapKind(op, ErrBadRequest, ErrEmptyBody)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
