package reporting

import (
	"context"
	"math"

	"github.com/robertarktes/clinic-front-desk/internal/adapters/postgres"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Aggregates is the read-only slice of the repository the reports
// need. No write access.
type Aggregates interface {
	CountTicketsForDay(ctx context.Context, day domain.Day) (int, error)
	CountWaiting(ctx context.Context, day domain.Day) (int, error)
	AverageWaitMinutes(ctx context.Context, day domain.Day) (float64, error)
	HourlyIssuance(ctx context.Context, day domain.Day, tz string) ([]postgres.HourCount, error)
	DailyIssuance(ctx context.Context, from, to domain.Day) ([]postgres.DayCount, error)
	RecentTickets(ctx context.Context, limit int) ([]postgres.RecentTicket, error)
	GetSetting(ctx context.Context, day domain.Day) (*domain.QueueSetting, error)
	ComplaintCountsByStatus(ctx context.Context) (map[string]int, error)
	ComplaintCountsByCategory(ctx context.Context) (map[string]int, error)
}

type Reporter struct {
	agg Aggregates
	tz  string
}

func NewReporter(agg Aggregates, tz string) *Reporter {
	return &Reporter{agg: agg, tz: tz}
}

type QueueReport struct {
	Day            domain.Day              `json:"day"`
	TotalIssued    int                     `json:"total_issued"`
	PreviousDay    int                     `json:"previous_day"`
	PercentChange  int                     `json:"percent_change"`
	ActiveWaiting  int                     `json:"active_waiting"`
	AvgWaitMinutes float64                 `json:"avg_wait_minutes"`
	Hourly         []postgres.HourCount    `json:"hourly"`
	Weekly         []postgres.DayCount     `json:"weekly"`
	Recent         []postgres.RecentTicket `json:"recent"`
	Settings       *domain.QueueSetting    `json:"settings,omitempty"`
}

// Queue builds the staff report for a day. The aggregate queries are
// independent, so they fan out concurrently.
func (r *Reporter) Queue(ctx context.Context, day domain.Day) (*QueueReport, error) {
	report := &QueueReport{Day: day}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.TotalIssued, err = r.agg.CountTicketsForDay(gctx, day)
		return err
	})
	g.Go(func() error {
		var err error
		report.PreviousDay, err = r.agg.CountTicketsForDay(gctx, day.AddDays(-1))
		return err
	})
	g.Go(func() error {
		var err error
		report.ActiveWaiting, err = r.agg.CountWaiting(gctx, day)
		return err
	})
	g.Go(func() error {
		var err error
		report.AvgWaitMinutes, err = r.agg.AverageWaitMinutes(gctx, day)
		return err
	})
	g.Go(func() error {
		var err error
		report.Hourly, err = r.agg.HourlyIssuance(gctx, day, r.tz)
		return err
	})
	g.Go(func() error {
		var err error
		report.Weekly, err = r.agg.DailyIssuance(gctx, day.AddDays(-6), day)
		return err
	})
	g.Go(func() error {
		var err error
		report.Recent, err = r.agg.RecentTickets(gctx, 5)
		return err
	})
	g.Go(func() error {
		var err error
		report.Settings, err = r.agg.GetSetting(gctx, day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.PreviousDay > 0 {
		change := float64(report.TotalIssued-report.PreviousDay) / float64(report.PreviousDay) * 100
		report.PercentChange = int(math.Round(change))
	}
	return report, nil
}

type ComplaintReport struct {
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}

func (r *Reporter) Complaints(ctx context.Context) (*ComplaintReport, error) {
	report := &ComplaintReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.ByStatus, err = r.agg.ComplaintCountsByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		report.ByCategory, err = r.agg.ComplaintCountsByCategory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
