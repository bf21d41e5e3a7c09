package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

// WaitEstimate is a derived projection, never persisted. A nil
// estimate means "no estimate" (ticket not waiting, or nothing has
// been called yet).
type WaitEstimate struct {
	NextInLine bool
	Wait       time.Duration
}

// EstimateWait projects the remaining wait for a waiting ticket from
// its distance to the serving cursor. Non-positive distance means the
// cursor already reached or passed the ticket, so service is imminent.
func EstimateWait(t domain.Ticket, s domain.QueueSetting) *WaitEstimate {
	if t.Status != domain.StatusWaiting || s.CurrentNumber == nil {
		return nil
	}
	ahead := t.Number - *s.CurrentNumber
	if ahead <= 0 {
		return &WaitEstimate{NextInLine: true}
	}
	return &WaitEstimate{Wait: time.Duration(ahead*s.AvgServiceMinutes) * time.Minute}
}

type Snapshot struct {
	Day           domain.Day
	Status        domain.QueueStatus
	CurrentNumber *int
	TotalWaiting  int
	OwnTicket     *domain.Ticket
	Estimate      *WaitEstimate
	UpdatedAt     time.Time
}

// Snapshot assembles the patient-facing view of today's queue. When a
// patient is given, their active ticket and wait estimate are included.
func (e *Engine) Snapshot(ctx context.Context, patientID *uuid.UUID) (Snapshot, error) {
	day := e.clock.Today()

	setting, err := e.settings.GetOrCreateSetting(ctx, day)
	if err != nil {
		return Snapshot{}, err
	}
	waiting, err := e.tickets.CountWaiting(ctx, day)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Day:           day,
		Status:        setting.Status,
		CurrentNumber: setting.CurrentNumber,
		TotalWaiting:  waiting,
		UpdatedAt:     setting.UpdatedAt,
	}

	if patientID != nil {
		t, err := e.tickets.FindActiveForPatient(ctx, *patientID, day)
		if err != nil {
			return Snapshot{}, err
		}
		if t != nil {
			snap.OwnTicket = t
			snap.Estimate = EstimateWait(*t, setting)
		}
	}
	return snap, nil
}
