// Package handlers contains the HTTP handlers for the carecal API. Each
// handler depends on a locally declared interface so tests can swap in fakes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"

	"carecal/internal/core"
	"carecal/internal/scheduler"
	"carecal/internal/types"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// ScheduleGenerator materializes template occurrences for explicit dates.
type ScheduleGenerator interface {
	Generate(ctx context.Context, childID string, dates []time.Time) ([]scheduler.GenerationResult, error)
}

// PlanReplacer regenerates a child's unmodified schedules from a weekly plan.
type PlanReplacer interface {
	Replace(ctx context.Context, childID string, plan []types.PlanItem, opts scheduler.ReplaceOptions) (scheduler.ReplaceResult, error)
}

// GenerateRequest is the body of POST /v1/schedules/generate.
type GenerateRequest struct {
	ChildID string   `json:"child_id" validate:"required,max=100"`
	Dates   []string `json:"dates" validate:"required,min=1,max=366,dive,iso_date"`
}

// GenerateResponse summarizes a generation run.
type GenerateResponse struct {
	Results  []scheduler.GenerationResult `json:"results"`
	Created  int                          `json:"created"`
	Existing int                          `json:"existing"`
}

// ReplaceRequest is the body of POST /v1/schedules/replace. An empty plan
// clears the child's unmodified schedules in the horizon.
type ReplaceRequest struct {
	ChildID   string           `json:"child_id" validate:"required,max=100"`
	Plan      []types.PlanItem `json:"plan" validate:"max=100,dive"`
	StartDate *string          `json:"start_date,omitempty" validate:"omitempty,iso_date"`
	Weeks     *int             `json:"weeks,omitempty"`
}

// ScheduleHandler serves the generation and replacement endpoints.
type ScheduleHandler struct {
	generator ScheduleGenerator
	replacer  PlanReplacer
	validator *core.Validator
	logger    *slog.Logger
	loc       *time.Location
}

// NewScheduleHandler creates a ScheduleHandler. Request dates are read as
// calendar days in loc.
func NewScheduleHandler(generator ScheduleGenerator, replacer PlanReplacer, v *core.Validator, loc *time.Location, l *slog.Logger) *ScheduleHandler {
	if l == nil {
		l = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleHandler{
		generator: generator,
		replacer:  replacer,
		validator: v,
		logger:    l,
		loc:       loc,
	}
}

// RegisterRoutes mounts the schedule endpoints on a /v1 router.
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/schedules", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Post("/replace", h.Replace)
	})
}

// Generate handles POST /v1/schedules/generate. On a store failure part way
// through, the error body carries the slots completed so far under
// details.results.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := h.parseDate(raw)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		dates = append(dates, d)
	}

	results, err := h.generator.Generate(r.Context(), req.ChildID, dates)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "schedule generation failed",
			"child_id", req.ChildID,
			"completed", len(results),
			"error", err,
		)
		var appErr *types.AppError
		if len(results) > 0 && errors.As(err, &appErr) {
			err = appErr.WithDetails(map[string]any{"results": results})
		}
		core.Error(w, r, err)
		return
	}

	created := scheduler.CountCreated(results)
	core.JSON(w, r, http.StatusOK, GenerateResponse{
		Results:  nonNil(results),
		Created:  created,
		Existing: len(results) - created,
	})
}

// Replace handles POST /v1/schedules/replace.
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req ReplaceRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	var opts scheduler.ReplaceOptions
	if req.Weeks != nil {
		opts.Weeks = mo.Some(*req.Weeks)
	}
	if req.StartDate != nil {
		start, err := h.parseDate(*req.StartDate)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		opts.StartDate = mo.Some(start)
	}

	result, err := h.replacer.Replace(r.Context(), req.ChildID, req.Plan, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "horizon replace failed",
			"child_id", req.ChildID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, result)
}

func (h *ScheduleHandler) parseDate(raw string) (time.Time, error) {
	return parseDay(raw, h.loc)
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", raw), err)
	}
	return d, nil
}

func nonNil(results []scheduler.GenerationResult) []scheduler.GenerationResult {
	if results == nil {
		return []scheduler.GenerationResult{}
	}
	return results
}
