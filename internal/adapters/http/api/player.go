package api

import (
	"context"
	"net/http"

	"github.com/okian/quipodium/internal/domain/account"
	"github.com/okian/quipodium/internal/domain/model"
)

// PlayerDependencies defines the player operations the handlers call.
type PlayerDependencies interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Update(ctx context.Context, username string, addGames, addScore int) (model.Player, error)
}

// PlayerHandler handles /player/* requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username string `json:"username"`
	AddGames int    `json:"add_to_games_played"`
	AddScore int    `json:"add_to_score"`
}

// HandleRegister handles POST /player/register requests.
func (h *PlayerHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_register"
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req credentialsRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	if err := h.deps.Register(r.Context(), req.Username, req.Password); err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeOK(w, account.MsgOK)
}

// HandleLogin handles GET and POST /player/login requests.
func (h *PlayerHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_login"
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	var req credentialsRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	if err := h.deps.Login(r.Context(), req.Username, req.Password); err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeOK(w, account.MsgOK)
}

// HandleUpdate handles PUT /player/update requests.
func (h *PlayerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_update"
	if !allowMethods(w, r, http.MethodPut) {
		return
	}
	var req updateRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	if _, err := h.deps.Update(r.Context(), req.Username, req.AddGames, req.AddScore); err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeOK(w, account.MsgOK)
}
