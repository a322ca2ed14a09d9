package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/simp/internal/auth"
	"github.com/dukerupert/simp/internal/model"
	"github.com/dukerupert/simp/internal/store"
	"github.com/dukerupert/simp/internal/validate"
	"github.com/dukerupert/simp/internal/websocket"
)

// Notifier delivers live updates to a person's open connections.
type Notifier interface {
	Notify(personID int64, msg websocket.Message)
}

type ScheduleHandler struct {
	schedules *store.ScheduleStore
	notifier  Notifier
	loc       *time.Location
	logger    *slog.Logger
}

// NewScheduleHandler creates a schedule handler. Date-only start dates are
// read in loc. notifier may be nil.
func NewScheduleHandler(ss *store.ScheduleStore, notifier Notifier, loc *time.Location, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: ss, notifier: notifier, loc: loc, logger: logger}
}

func (h *ScheduleHandler) notify(personID int64, msg websocket.Message) {
	if h.notifier != nil {
		h.notifier.Notify(personID, msg)
	}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ns, err := validate.Schedule(req, h.loc)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	personID := auth.PersonID(r.Context())
	schedule, err := h.schedules.Create(r.Context(), personID, ns)
	switch {
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "A schedule with this title already exists.")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Person not found.")
		return
	case err != nil:
		h.logger.Error("create schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred while creating the schedule.")
		return
	}

	h.notify(personID, websocket.NewMessage("schedule", "created", schedule.ID, map[string]any{"title": schedule.Title}))
	writeJSON(w, http.StatusCreated, schedule)
}

// ListForUser serves one page of the caller's schedules. A missing or
// malformed page parameter means page 1.
func (h *ScheduleHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.schedules.ListForUser(r.Context(), auth.PersonID(r.Context()), page, store.DefaultPageSize)
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred while listing schedules.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Schedule not found.")
		return
	}
	if schedule.PersonID != auth.PersonID(r.Context()) {
		writeError(w, http.StatusForbidden, "You are not allowed to view this schedule.")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	personID := auth.PersonID(r.Context())
	err = h.schedules.Delete(r.Context(), id, personID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Schedule not found.")
		return
	case errors.Is(err, store.ErrForbidden):
		writeError(w, http.StatusForbidden, "You are not allowed to delete this schedule.")
		return
	case err != nil:
		h.logger.Error("delete schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred while deleting the schedule.")
		return
	}

	h.notify(personID, websocket.NewMessage("schedule", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Schedule deleted successfully."})
}
