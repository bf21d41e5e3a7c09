package domain_test

import (
	"testing"
	"time"

	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

func TestTicketStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    domain.TicketStatus
		to      domain.TicketStatus
		allowed bool
	}{
		{domain.StatusWaiting, domain.StatusServing, true},
		{domain.StatusWaiting, domain.StatusCancelled, true},
		{domain.StatusWaiting, domain.StatusCompleted, false},
		{domain.StatusServing, domain.StatusCompleted, true},
		{domain.StatusServing, domain.StatusCancelled, false},
		{domain.StatusServing, domain.StatusWaiting, false},
		{domain.StatusCompleted, domain.StatusServing, false},
		{domain.StatusCompleted, domain.StatusCancelled, false},
		{domain.StatusCancelled, domain.StatusWaiting, false},
		{domain.StatusCancelled, domain.StatusServing, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTicketStatus_Terminal(t *testing.T) {
	if domain.StatusWaiting.Terminal() || domain.StatusServing.Terminal() {
		t.Error("waiting and serving must not be terminal")
	}
	if !domain.StatusCompleted.Terminal() || !domain.StatusCancelled.Terminal() {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestTicket_Active(t *testing.T) {
	for _, s := range []domain.TicketStatus{domain.StatusWaiting, domain.StatusServing} {
		if !(domain.Ticket{Status: s}).Active() {
			t.Errorf("expected %s ticket to be active", s)
		}
	}
	for _, s := range []domain.TicketStatus{domain.StatusCompleted, domain.StatusCancelled} {
		if (domain.Ticket{Status: s}).Active() {
			t.Errorf("expected %s ticket to be inactive", s)
		}
	}
}

func TestDay_AddDays(t *testing.T) {
	day := domain.DayOf(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	if day != "2025-03-01" {
		t.Fatalf("unexpected day %s", day)
	}
	if got := day.AddDays(-1); got != "2025-02-28" {
		t.Errorf("expected 2025-02-28, got %s", got)
	}
	if got := day.AddDays(31); got != "2025-04-01" {
		t.Errorf("expected 2025-04-01, got %s", got)
	}
}

func TestDayOf_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in Jakarta.
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	utc := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := domain.DayOf(utc.In(loc)); got != "2025-03-02" {
		t.Errorf("expected 2025-03-02, got %s", got)
	}
}
