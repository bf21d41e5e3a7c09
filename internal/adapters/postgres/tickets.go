package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

const ticketColumns = `id, day, number, patient_id, status, created_at, called_at, completed_at`

// CreateTicket allocates the day's next sequential number and inserts
// the ticket as one atomic unit. The UNIQUE (day, number) constraint
// turns a lost race into domain.ErrConflict; SERIALIZABLE conflicts
// surface as domain.ErrSerializationFailure. Callers own the retry.
func (r *Repository) CreateTicket(ctx context.Context, day domain.Day, patientID uuid.UUID, createdAt time.Time) (domain.Ticket, error) {
	t := domain.Ticket{
		ID:        uuid.New(),
		Day:       day,
		PatientID: patientID,
		Status:    domain.StatusWaiting,
		CreatedAt: createdAt,
	}

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(number), 0) + 1 FROM tickets WHERE day = $1
		`, day.String()).Scan(&t.Number); err != nil {
			return errors.Wrap(err, "next ticket number")
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tickets (id, day, number, patient_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, t.ID, day.String(), t.Number, t.PatientID, t.Status, t.CreatedAt); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"ticket_id":  t.ID,
			"day":        t.Day,
			"number":     t.Number,
			"patient_id": t.PatientID,
		})
		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "ticket",
			AggregateID:   t.ID,
			EventType:     "ticket.created",
			Payload:       payload,
			DedupeKey:     uuid.New().String(),
		})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return t, nil
}

func (r *Repository) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE id = $1
	`, id)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindActiveForPatient returns the patient's waiting or serving ticket
// for the day, or nil when there is none.
func (r *Repository) FindActiveForPatient(ctx context.Context, patientID uuid.UUID, day domain.Day) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE patient_id = $1 AND day = $2 AND status IN ('waiting', 'serving')
	`, patientID, day.String())
	return noneOnNoRows(scanTicket(row))
}

func (r *Repository) FindOldestWaiting(ctx context.Context, day domain.Day) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE day = $1 AND status = 'waiting'
		ORDER BY number ASC
		LIMIT 1
	`, day.String())
	return noneOnNoRows(scanTicket(row))
}

func (r *Repository) FindServing(ctx context.Context, day domain.Day, number int) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE day = $1 AND number = $2 AND status = 'serving'
	`, day.String(), number)
	return noneOnNoRows(scanTicket(row))
}

func (r *Repository) ListForDay(ctx context.Context, day domain.Day) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE day = $1
		ORDER BY number ASC
	`, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (r *Repository) CountWaiting(ctx context.Context, day domain.Day) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets WHERE day = $1 AND status = 'waiting'
	`, day.String()).Scan(&n)
	return n, err
}

func (r *Repository) SaveTicket(ctx context.Context, t domain.Ticket) error {
	result, err := r.db.Exec(ctx, `
		UPDATE tickets SET status = $2, called_at = $3, completed_at = $4 WHERE id = $1
	`, t.ID, t.Status, t.CalledAt, t.CompletedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var day time.Time
	var calledAt, completedAt sql.NullTime
	if err := row.Scan(&t.ID, &day, &t.Number, &t.PatientID, &t.Status, &t.CreatedAt, &calledAt, &completedAt); err != nil {
		return nil, err
	}
	t.Day = domain.DayOf(day)
	t.CalledAt = nullTimePtr(calledAt)
	t.CompletedAt = nullTimePtr(completedAt)
	return &t, nil
}

func noneOnNoRows(t *domain.Ticket, err error) (*domain.Ticket, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
