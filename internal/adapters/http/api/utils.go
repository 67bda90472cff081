package api

import (
	"context"
	"net/http"

	"github.com/okian/quipodium/internal/domain/types"
)

// UtilsDependencies defines the read operations behind /utils/*.
type UtilsDependencies interface {
	GetPrompts(ctx context.Context, players []string, language string) ([]types.PromptView, error)
	Podium(ctx context.Context) (types.Podium, error)
}

// UtilsHandler handles /utils/* requests.
type UtilsHandler struct {
	deps UtilsDependencies
}

// NewUtilsHandler creates a new utils handler.
func NewUtilsHandler(deps UtilsDependencies) *UtilsHandler {
	return &UtilsHandler{deps: deps}
}

type getPromptsRequest struct {
	Players  []string `json:"players"`
	Language string   `json:"language"`
}

// HandleGetPrompts handles GET and POST /utils/get requests.
func (h *UtilsHandler) HandleGetPrompts(w http.ResponseWriter, r *http.Request) {
	const op = "api.utils_get"
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	var req getPromptsRequest
	if err := decodeBody(op, r, &req); err != nil {
		writeFailure(r, w, err)
		return
	}
	views, err := h.deps.GetPrompts(r.Context(), req.Players, req.Language)
	if err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	if views == nil {
		views = []types.PromptView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// HandlePodium handles GET /utils/podium requests.
func (h *UtilsHandler) HandlePodium(w http.ResponseWriter, r *http.Request) {
	const op = "api.utils_podium"
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	podium, err := h.deps.Podium(r.Context())
	if err != nil {
		writeFailure(r, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, podium)
}
