package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"github.com/robertarktes/clinic-front-desk/internal/queue"
)

func TestFormatEstimate(t *testing.T) {
	cases := []struct {
		name string
		est  *queue.WaitEstimate
		want string
	}{
		{"none", nil, ""},
		{"next in line", &queue.WaitEstimate{NextInLine: true}, "Next in line"},
		{"minutes", &queue.WaitEstimate{Wait: 45 * time.Minute}, "45 minutes"},
		{"one hour", &queue.WaitEstimate{Wait: 60 * time.Minute}, "1 hour"},
		{"hour and minute", &queue.WaitEstimate{Wait: 61 * time.Minute}, "1 hour 1 minute"},
		{"hours and minutes", &queue.WaitEstimate{Wait: 150 * time.Minute}, "2 hours 30 minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatEstimate(tc.est); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrDuplicateActiveTicket, 409},
		{domain.ErrQueueClosed, 409},
		{domain.ErrQueueEmpty, 409},
		{domain.ErrInvalidTransition, 409},
		{domain.ErrConflict, 409},
		{domain.ErrSerializationFailure, 409},
		{domain.ErrNotFound, 404},
		{domain.ErrConcurrency, 503},
		{domain.ErrSettingsNotFound, 500},
		{domain.Invalid("status", "unknown"), 422},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.code {
			t.Errorf("%v: got %d, want %d", tc.err, rec.Code, tc.code)
		}
	}

	rec := httptest.NewRecorder()
	writeError(rec, domain.ErrConcurrency)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After on concurrency errors")
	}
}

func TestParseDay(t *testing.T) {
	if _, err := parseDay("2025-03-10"); err != nil {
		t.Errorf("expected valid day, got %v", err)
	}
	for _, raw := range []string{"10-03-2025", "2025-3-1", "yesterday", ""} {
		if _, err := parseDay(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}
