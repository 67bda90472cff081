package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/quipodium/internal/domain/account"
	"github.com/okian/quipodium/internal/domain/model"
)

// PromptDependencies defines the prompt operations the handlers call.
type PromptDependencies interface {
	CreatePrompt(ctx context.Context, username, text string) (model.Prompt, error)
	DeletePrompts(ctx context.Context, username string) (int, error)
	Suggest(ctx context.Context, keyword string) (string, error)
}

// PromptHandler handles /prompt/* requests.
type PromptHandler struct {
	deps PromptDependencies
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(deps PromptDependencies) *PromptHandler {
	return &PromptHandler{deps: deps}
}

type createPromptRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

type deletePromptsRequest struct {
	Player string `json:"player"`
}

type suggestRequest struct {
	Keyword string `json:"keyword"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

// HandleCreate handles POST /prompt/create requests.
func (h *PromptHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.prompt_create"
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req createPromptRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	if _, err := h.deps.CreatePrompt(r.Context(), req.Username, req.Text); err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeOK(w, account.MsgOK)
}

// HandleDelete handles POST /prompt/delete requests.
func (h *PromptHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.prompt_delete"
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req deletePromptsRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	n, err := h.deps.DeletePrompts(r.Context(), req.Player)
	if err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeOK(w, fmt.Sprintf("%d prompts deleted", n))
}

// HandleSuggest handles POST /prompt/suggest requests.
func (h *PromptHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.prompt_suggest"
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req suggestRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	text, err := h.deps.Suggest(r.Context(), req.Keyword)
	if err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestion: text})
}
