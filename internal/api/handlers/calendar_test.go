package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carecal/internal/types"
)

var exportNow = time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC)

func newCalendarHandler(exp *mockExporter, loc *time.Location) *CalendarHandler {
	return NewCalendarHandler(exp, types.FixedClock(exportNow), loc, discardLogger())
}

func TestExport_DefaultWindow(t *testing.T) {
	exp := &mockExporter{}
	h := newCalendarHandler(exp, time.UTC)

	rec := serve(h.RegisterRoutes, http.MethodGet, "/v1/children/child_1/schedules.ics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), exp.lastFrom)
	assert.Equal(t, time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC), exp.lastTo)
}

func TestExport_ExplicitWindowInEngineZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	exp := &mockExporter{}
	h := newCalendarHandler(exp, ny)

	rec := serve(h.RegisterRoutes, http.MethodGet, "/v1/children/child_1/schedules.ics?from=2024-03-01&to=2024-03-15", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, exp.lastFrom.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, ny)))
	assert.True(t, exp.lastTo.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, ny)))
}

func TestExport_InvalidWindow(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad from", "?from=yesterday"},
		{"bad to", "?to=2024/02/01"},
		{"inverted", "?from=2024-03-15&to=2024-03-01"},
		{"empty", "?from=2024-03-01&to=2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCalendarHandler(&mockExporter{}, time.UTC)
			rec := serve(h.RegisterRoutes, http.MethodGet, "/v1/children/child_1/schedules.ics"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), string(types.ErrCodeValidationInvalidDate))
		})
	}
}

func TestExport_StoreFailure(t *testing.T) {
	h := newCalendarHandler(&mockExporter{
		exportFn: func(ctx context.Context, childID string, from, to, now time.Time) (string, error) {
			return "", errors.New("listing schedules for export: connection reset")
		},
	}, time.UTC)

	rec := serve(h.RegisterRoutes, http.MethodGet, "/v1/children/child_1/schedules.ics", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
