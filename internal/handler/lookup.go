package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/simp/internal/store"
)

type LookupHandler struct {
	lookups *store.LookupStore
	logger  *slog.Logger
}

func NewLookupHandler(ls *store.LookupStore, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{lookups: ls, logger: logger}
}

func (h *LookupHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.lookups.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *LookupHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.lookups.Roles(r.Context())
	if err != nil {
		h.logger.Error("list roles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	writeJSON(w, http.StatusOK, roles)
}
