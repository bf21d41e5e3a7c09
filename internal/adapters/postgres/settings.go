package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

const settingColumns = `day, status, start_time, end_time, avg_service_minutes, current_number, updated_at`

// GetOrCreateSetting returns the day's settings, lazily creating the
// row with the standard defaults. The upsert keeps concurrent first
// access for the same day down to exactly one row.
func (r *Repository) GetOrCreateSetting(ctx context.Context, day domain.Day) (domain.QueueSetting, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO queue_settings (day, status, start_time, end_time, avg_service_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (day) DO NOTHING
	`, day.String(), domain.QueueClosed, domain.DefaultStartTime, domain.DefaultEndTime, domain.DefaultAvgServiceMinutes)
	if err != nil {
		return domain.QueueSetting{}, errors.Wrap(err, "create queue settings")
	}

	s, err := r.GetSetting(ctx, day)
	if err != nil {
		return domain.QueueSetting{}, err
	}
	if s == nil {
		return domain.QueueSetting{}, domain.ErrSettingsNotFound
	}
	return *s, nil
}

// GetSetting returns nil when no row exists for the day.
func (r *Repository) GetSetting(ctx context.Context, day domain.Day) (*domain.QueueSetting, error) {
	var s domain.QueueSetting
	var d time.Time
	var currentNumber sql.NullInt32
	err := r.db.QueryRow(ctx, `
		SELECT `+settingColumns+` FROM queue_settings WHERE day = $1
	`, day.String()).Scan(&d, &s.Status, &s.StartTime, &s.EndTime, &s.AvgServiceMinutes, &currentNumber, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Day = domain.DayOf(d)
	if currentNumber.Valid {
		n := int(currentNumber.Int32)
		s.CurrentNumber = &n
	}
	return &s, nil
}

func (r *Repository) SetQueueStatus(ctx context.Context, day domain.Day, status domain.QueueStatus) error {
	result, err := r.db.Exec(ctx, `
		UPDATE queue_settings SET status = $2, updated_at = now() WHERE day = $1
	`, day.String(), status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}

func (r *Repository) SetCurrentNumber(ctx context.Context, day domain.Day, number int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE queue_settings SET current_number = $2, updated_at = now() WHERE day = $1
	`, day.String(), number)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}

func (r *Repository) UpdateHours(ctx context.Context, day domain.Day, start, end string, avgMinutes int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE queue_settings
		SET start_time = $2, end_time = $3, avg_service_minutes = $4, updated_at = now()
		WHERE day = $1
	`, day.String(), start, end, avgMinutes)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}
