package domain

import "time"

type QueueStatus string

const (
	QueueActive QueueStatus = "active"
	QueuePaused QueueStatus = "paused"
	QueueClosed QueueStatus = "closed"
)

func (s QueueStatus) Valid() bool {
	switch s {
	case QueueActive, QueuePaused, QueueClosed:
		return true
	}
	return false
}

// Defaults applied when a day's settings row is first created.
const (
	DefaultStartTime         = "08:00"
	DefaultEndTime           = "16:00"
	DefaultAvgServiceMinutes = 15

	MinAvgServiceMinutes = 1
	MaxAvgServiceMinutes = 60
)

// QueueSetting is the per-day operating configuration plus the live
// serving cursor. One row per day, created lazily, never deleted.
type QueueSetting struct {
	Day               Day
	Status            QueueStatus
	StartTime         string // HH:MM
	EndTime           string // HH:MM
	AvgServiceMinutes int
	CurrentNumber     *int
	UpdatedAt         time.Time
}
