package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"carecal/internal/core"
	"carecal/internal/scheduler"
	"carecal/internal/types"
)

type mockGenerator struct {
	generateFn func(ctx context.Context, childID string, dates []time.Time) ([]scheduler.GenerationResult, error)

	lastChildID string
	lastDates   []time.Time
}

func (m *mockGenerator) Generate(ctx context.Context, childID string, dates []time.Time) ([]scheduler.GenerationResult, error) {
	m.lastChildID = childID
	m.lastDates = dates
	if m.generateFn != nil {
		return m.generateFn(ctx, childID, dates)
	}
	return nil, nil
}

type mockReplacer struct {
	replaceFn func(ctx context.Context, childID string, plan []types.PlanItem, opts scheduler.ReplaceOptions) (scheduler.ReplaceResult, error)

	called   bool
	lastPlan []types.PlanItem
	lastOpts scheduler.ReplaceOptions
}

func (m *mockReplacer) Replace(ctx context.Context, childID string, plan []types.PlanItem, opts scheduler.ReplaceOptions) (scheduler.ReplaceResult, error) {
	m.called = true
	m.lastPlan = plan
	m.lastOpts = opts
	if m.replaceFn != nil {
		return m.replaceFn(ctx, childID, plan, opts)
	}
	return scheduler.ReplaceResult{}, nil
}

type mockRetirer struct {
	retireFn func(ctx context.Context, templateID string) (scheduler.RetireResult, error)
}

func (m *mockRetirer) Retire(ctx context.Context, templateID string) (scheduler.RetireResult, error) {
	if m.retireFn != nil {
		return m.retireFn(ctx, templateID)
	}
	return scheduler.RetireResult{}, nil
}

type mockExporter struct {
	exportFn func(ctx context.Context, childID string, from, to, now time.Time) (string, error)

	lastFrom, lastTo time.Time
}

func (m *mockExporter) Export(ctx context.Context, childID string, from, to, now time.Time) (string, error) {
	m.lastFrom, m.lastTo = from, to
	if m.exportFn != nil {
		return m.exportFn(ctx, childID, from, to, now)
	}
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes a request through a chi router with the registrar mounted
// under /v1, the way cmd/api wires it.
func serve(register func(chi.Router), method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/v1", register)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testValidator() *core.Validator {
	return core.NewValidator(discardLogger())
}
