package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/simp/internal/auth"
	"github.com/dukerupert/simp/internal/dashboard"
)

type DashboardHandler struct {
	windower *dashboard.Windower
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewDashboardHandler creates a dashboard handler whose day boundaries fall
// at midnight in loc.
func NewDashboardHandler(w *dashboard.Windower, loc *time.Location, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{windower: w, loc: loc, now: time.Now, logger: logger}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dash, err := h.windower.Get(r.Context(), auth.PersonID(r.Context()), h.now().In(h.loc))
	if err != nil {
		h.logger.Error("load dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred while loading the dashboard.")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
