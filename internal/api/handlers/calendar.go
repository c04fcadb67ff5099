package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"carecal/internal/calendar"
	"carecal/internal/core"
	"carecal/internal/types"
)

// CalendarExporter renders a child's schedules as iCalendar text.
type CalendarExporter interface {
	Export(ctx context.Context, childID string, from, to time.Time, now time.Time) (string, error)
}

// CalendarHandler serves the read-only iCalendar feed.
type CalendarHandler struct {
	exporter CalendarExporter
	clock    types.Clock
	loc      *time.Location
	logger   *slog.Logger
}

// NewCalendarHandler creates a CalendarHandler. from/to query dates are read
// as calendar days in loc.
func NewCalendarHandler(exporter CalendarExporter, clock types.Clock, loc *time.Location, l *slog.Logger) *CalendarHandler {
	if l == nil {
		l = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarHandler{exporter: exporter, clock: clock, loc: loc, logger: l}
}

// RegisterRoutes mounts the feed on a /v1 router.
func (h *CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/children/{childID}/schedules.ics", h.Export)
}

// Export handles GET /v1/children/{childID}/schedules.ics?from=&to=. The
// window defaults to today through calendar.DefaultWindow; to is exclusive.
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "childID")
	now := h.clock.Now()

	from, to, err := exportWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"), now, h.loc)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	body, err := h.exporter.Export(r.Context(), childID, from, to, now)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "calendar export failed",
			"child_id", childID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="schedules.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// exportWindow resolves the optional from/to query values.
func exportWindow(rawFrom, rawTo string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	n := now.In(loc)
	from := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	if rawFrom != "" {
		d, err := parseDay(rawFrom, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}

	to := from.AddDate(0, 0, calendar.DefaultWindowDays)
	if rawTo != "" {
		d, err := parseDay(rawTo, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidDate,
			"to must be after from", nil)
	}
	return from, to, nil
}
