package queue

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/clinic-front-desk/internal/clock"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
)

// serializationRetries bounds how often an engine operation replays a
// lost numbering or serialization race before giving up with
// ErrConcurrency.
const serializationRetries = 3

type TicketStore interface {
	// CreateTicket allocates the day's next sequential number and
	// inserts the ticket atomically. A lost race returns
	// domain.ErrConflict or domain.ErrSerializationFailure.
	CreateTicket(ctx context.Context, day domain.Day, patientID uuid.UUID, createdAt time.Time) (domain.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	FindActiveForPatient(ctx context.Context, patientID uuid.UUID, day domain.Day) (*domain.Ticket, error)
	FindOldestWaiting(ctx context.Context, day domain.Day) (*domain.Ticket, error)
	FindServing(ctx context.Context, day domain.Day, number int) (*domain.Ticket, error)
	ListForDay(ctx context.Context, day domain.Day) ([]domain.Ticket, error)
	CountWaiting(ctx context.Context, day domain.Day) (int, error)
	SaveTicket(ctx context.Context, t domain.Ticket) error
}

type SettingStore interface {
	GetOrCreateSetting(ctx context.Context, day domain.Day) (domain.QueueSetting, error)
	// GetSetting returns nil when no row exists for the day.
	GetSetting(ctx context.Context, day domain.Day) (*domain.QueueSetting, error)
	SetQueueStatus(ctx context.Context, day domain.Day, status domain.QueueStatus) error
	SetCurrentNumber(ctx context.Context, day domain.Day, number int) error
	UpdateHours(ctx context.Context, day domain.Day, start, end string, avgMinutes int) error
}

type EventRecorder interface {
	RecordEvent(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload interface{}) error
}

// Stores bundles everything the engine touches in one place.
type Stores interface {
	TicketStore
	SettingStore
	EventRecorder
}

// TxRunner hands fn stores bound to a single transaction, so a
// multi-step mutation like CallNext commits or rolls back as a unit.
// Serialization losses surface as domain.ErrSerializationFailure.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

// Engine owns every ticket and settings transition. Stores hold data
// but never self-mutate outside an engine call.
type Engine struct {
	tickets  TicketStore
	settings SettingStore
	events   EventRecorder
	runner   TxRunner
	clock    clock.Clock
	logger   observability.Logger
}

func NewEngine(stores Stores, runner TxRunner, clk clock.Clock, logger observability.Logger) *Engine {
	return &Engine{
		tickets:  stores,
		settings: stores,
		events:   stores,
		runner:   runner,
		clock:    clk,
		logger:   logger,
	}
}

func (e *Engine) Today() domain.Day {
	return e.clock.Today()
}

// TakeTicket issues the next sequential number for today to the
// patient. At most one waiting/serving ticket per patient per day.
func (e *Engine) TakeTicket(ctx context.Context, patientID uuid.UUID) (domain.Ticket, error) {
	day := e.clock.Today()

	active, err := e.tickets.FindActiveForPatient(ctx, patientID, day)
	if err != nil {
		return domain.Ticket{}, err
	}
	if active != nil {
		return domain.Ticket{}, domain.ErrDuplicateActiveTicket
	}

	setting, err := e.settings.GetOrCreateSetting(ctx, day)
	if err != nil {
		return domain.Ticket{}, err
	}
	if setting.Status == domain.QueueClosed {
		return domain.Ticket{}, domain.ErrQueueClosed
	}

	for attempt := 0; attempt < serializationRetries; attempt++ {
		t, err := e.tickets.CreateTicket(ctx, day, patientID, e.clock.Now())
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrSerializationFailure) {
			observability.TicketNumberConflicts.Inc()
			// An earlier attempt may have committed server-side even
			// though we saw an error; re-check before renumbering.
			active, cerr := e.tickets.FindActiveForPatient(ctx, patientID, day)
			if cerr != nil {
				return domain.Ticket{}, cerr
			}
			if active != nil {
				return domain.Ticket{}, domain.ErrDuplicateActiveTicket
			}
			continue
		}
		if err != nil {
			return domain.Ticket{}, err
		}
		observability.TicketsIssued.Inc()
		return t, nil
	}
	return domain.Ticket{}, domain.ErrConcurrency
}

// CallNext completes the ticket currently being served, promotes the
// oldest waiting ticket to serving and advances the cursor, all inside
// one transaction. After a successful call exactly one ticket for the
// day is serving and its number equals the cursor. An empty queue
// leaves the serving ticket untouched.
func (e *Engine) CallNext(ctx context.Context, day domain.Day) (domain.Ticket, error) {
	for attempt := 0; attempt < serializationRetries; attempt++ {
		var called domain.Ticket
		err := e.runner.InTx(ctx, func(s Stores) error {
			t, err := e.callNext(ctx, s, day)
			if err != nil {
				return err
			}
			called = t
			return nil
		})
		if errors.Is(err, domain.ErrSerializationFailure) || errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.Ticket{}, err
		}
		return called, nil
	}
	return domain.Ticket{}, domain.ErrConcurrency
}

func (e *Engine) callNext(ctx context.Context, s Stores, day domain.Day) (domain.Ticket, error) {
	setting, err := s.GetSetting(ctx, day)
	if err != nil {
		return domain.Ticket{}, err
	}
	if setting == nil {
		return domain.Ticket{}, domain.ErrSettingsNotFound
	}

	// Nothing waiting means nothing changes, in particular the ticket
	// currently being served stays serving.
	next, err := s.FindOldestWaiting(ctx, day)
	if err != nil {
		return domain.Ticket{}, err
	}
	if next == nil {
		return domain.Ticket{}, domain.ErrQueueEmpty
	}

	now := e.clock.Now()

	if setting.CurrentNumber != nil {
		current, err := s.FindServing(ctx, day, *setting.CurrentNumber)
		if err != nil {
			return domain.Ticket{}, err
		}
		if current == nil {
			// Stale cursor: a previous call died between completing the
			// old ticket and persisting the new cursor. Heal by moving on.
			e.logger.WithField("day", day.String()).
				WithField("current_number", *setting.CurrentNumber).
				Warn("serving cursor points at no serving ticket")
		} else if err := e.complete(ctx, s, *current, now); err != nil {
			return domain.Ticket{}, err
		}
	}

	if !next.Status.CanTransitionTo(domain.StatusServing) {
		return domain.Ticket{}, domain.ErrInvalidTransition
	}
	next.Status = domain.StatusServing
	next.CalledAt = &now
	if err := s.SaveTicket(ctx, *next); err != nil {
		return domain.Ticket{}, err
	}

	if err := s.SetCurrentNumber(ctx, day, next.Number); err != nil {
		return domain.Ticket{}, err
	}

	e.record(ctx, s, *next, "ticket.called")
	return *next, nil
}

// CancelTicket is allowed only while the ticket is waiting.
func (e *Engine) CancelTicket(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	t, err := e.tickets.GetTicket(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !t.Status.CanTransitionTo(domain.StatusCancelled) {
		return domain.Ticket{}, domain.ErrInvalidTransition
	}
	t.Status = domain.StatusCancelled
	if err := e.tickets.SaveTicket(ctx, *t); err != nil {
		return domain.Ticket{}, err
	}
	e.record(ctx, e.events, *t, "ticket.cancelled")
	return *t, nil
}

// ToggleStatus changes the day's operational status. Closing or
// pausing never cancels in-flight tickets.
func (e *Engine) ToggleStatus(ctx context.Context, day domain.Day, status domain.QueueStatus) error {
	if !status.Valid() {
		return domain.Invalid("status", "must be active, paused or closed")
	}
	if _, err := e.settings.GetOrCreateSetting(ctx, day); err != nil {
		return err
	}
	if err := e.settings.SetQueueStatus(ctx, day, status); err != nil {
		return err
	}
	if e.events != nil {
		err := e.events.RecordEvent(ctx, "queue", uuid.Nil, "queue.status_changed", map[string]interface{}{
			"day":    day,
			"status": status,
		})
		if err != nil {
			e.logger.WithError(err).Warn("failed to record queue event")
		}
	}
	return nil
}

// UpdateHours validates and persists operating hours and the average
// service time used for wait estimation.
func (e *Engine) UpdateHours(ctx context.Context, day domain.Day, start, end string, avgMinutes int) error {
	startT, err := time.Parse("15:04", start)
	if err != nil {
		return domain.Invalid("start_time", "must be HH:MM")
	}
	endT, err := time.Parse("15:04", end)
	if err != nil {
		return domain.Invalid("end_time", "must be HH:MM")
	}
	if !endT.After(startT) {
		return domain.Invalid("end_time", "must be after start_time")
	}
	if avgMinutes < domain.MinAvgServiceMinutes || avgMinutes > domain.MaxAvgServiceMinutes {
		return domain.Invalid("average_service_minutes", "must be between 1 and 60")
	}
	if _, err := e.settings.GetOrCreateSetting(ctx, day); err != nil {
		return err
	}
	return e.settings.UpdateHours(ctx, day, start, end, avgMinutes)
}

func (e *Engine) complete(ctx context.Context, s Stores, t domain.Ticket, now time.Time) error {
	if !t.Status.CanTransitionTo(domain.StatusCompleted) {
		return domain.ErrInvalidTransition
	}
	t.Status = domain.StatusCompleted
	t.CompletedAt = &now
	if err := s.SaveTicket(ctx, t); err != nil {
		return err
	}
	e.record(ctx, s, t, "ticket.completed")
	return nil
}

func (e *Engine) record(ctx context.Context, events EventRecorder, t domain.Ticket, eventType string) {
	if events == nil {
		return
	}
	err := events.RecordEvent(ctx, "ticket", t.ID, eventType, map[string]interface{}{
		"ticket_id":  t.ID,
		"day":        t.Day,
		"number":     t.Number,
		"patient_id": t.PatientID,
	})
	if err != nil {
		e.logger.WithError(err).Warn("failed to record queue event")
	}
}
