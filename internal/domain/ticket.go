package domain

import (
	"time"

	"github.com/google/uuid"
)

// Day is the calendar date that partitions all queue state, formatted
// as 2006-01-02 in the clinic's timezone.
type Day string

func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

func (d Day) String() string { return string(d) }

// AddDays shifts the day by n calendar days. An unparseable day is
// returned unchanged.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse("2006-01-02", string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

type TicketStatus string

const (
	StatusWaiting   TicketStatus = "waiting"
	StatusServing   TicketStatus = "serving"
	StatusCompleted TicketStatus = "completed"
	StatusCancelled TicketStatus = "cancelled"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusServing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	StatusWaiting: {StatusServing, StatusCancelled},
	StatusServing: {StatusCompleted},
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID          uuid.UUID
	Day         Day
	Number      int
	PatientID   uuid.UUID
	Status      TicketStatus
	CreatedAt   time.Time
	CalledAt    *time.Time
	CompletedAt *time.Time
}

func (t Ticket) Active() bool {
	return t.Status == StatusWaiting || t.Status == StatusServing
}
