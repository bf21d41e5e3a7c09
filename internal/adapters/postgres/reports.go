package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DayCount struct {
	Day   domain.Day `json:"day"`
	Count int        `json:"count"`
}

type RecentTicket struct {
	Number      int        `json:"number"`
	PatientName string     `json:"patient_name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r *Repository) CountTicketsForDay(ctx context.Context, day domain.Day) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets WHERE day = $1
	`, day.String()).Scan(&n)
	return n, err
}

// AverageWaitMinutes averages created-to-called deltas for tickets that
// were actually called on the day.
func (r *Repository) AverageWaitMinutes(ctx context.Context, day domain.Day) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (called_at - created_at)) / 60), 0)
		FROM tickets WHERE day = $1 AND called_at IS NOT NULL
	`, day.String()).Scan(&avg)
	return avg, err
}

// HourlyIssuance buckets the day's tickets by issuance hour in the
// given timezone.
func (r *Repository) HourlyIssuance(ctx context.Context, day domain.Day, tz string) ([]HourCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT EXTRACT(HOUR FROM created_at AT TIME ZONE $2)::int AS hour, COUNT(*)
		FROM tickets WHERE day = $1
		GROUP BY hour ORDER BY hour
	`, day.String(), tz)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, hc)
	}
	return counts, rows.Err()
}

func (r *Repository) DailyIssuance(ctx context.Context, from, to domain.Day) ([]DayCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT day, COUNT(*) FROM tickets
		WHERE day BETWEEN $1 AND $2
		GROUP BY day ORDER BY day
	`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var d time.Time
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		counts = append(counts, DayCount{Day: domain.DayOf(d), Count: n})
	}
	return counts, rows.Err()
}

func (r *Repository) RecentTickets(ctx context.Context, limit int) ([]RecentTicket, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.number, COALESCE(p.name, 'Unknown'), t.status, t.created_at, t.called_at, t.completed_at
		FROM tickets t
		LEFT JOIN patients p ON p.id = t.patient_id
		ORDER BY t.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []RecentTicket
	for rows.Next() {
		var rt RecentTicket
		var calledAt, completedAt sql.NullTime
		if err := rows.Scan(&rt.Number, &rt.PatientName, &rt.Status, &rt.CreatedAt, &calledAt, &completedAt); err != nil {
			return nil, err
		}
		rt.CalledAt = nullTimePtr(calledAt)
		rt.CompletedAt = nullTimePtr(completedAt)
		tickets = append(tickets, rt)
	}
	return tickets, rows.Err()
}

func (r *Repository) ComplaintCountsByStatus(ctx context.Context) (map[string]int, error) {
	return r.countComplaintsBy(ctx, `
		SELECT status, COUNT(*) FROM complaints GROUP BY status
	`)
}

func (r *Repository) ComplaintCountsByCategory(ctx context.Context) (map[string]int, error) {
	return r.countComplaintsBy(ctx, `
		SELECT category, COUNT(*) FROM complaints GROUP BY category
	`)
}

func (r *Repository) countComplaintsBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
