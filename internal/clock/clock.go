package clock

import (
	"time"

	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

// Clock supplies the wall time and the "today" boundary that partitions
// all queue state. Injected so engine logic tests against fixed days.
type Clock interface {
	Now() time.Time
	Today() domain.Day
}

type wallClock struct {
	loc *time.Location
}

func NewWallClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &wallClock{loc: loc}
}

func (c *wallClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *wallClock) Today() domain.Day {
	return domain.DayOf(c.Now())
}

// Fixed is a test clock pinned to a single instant.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time    { return f.T }
func (f *Fixed) Today() domain.Day { return domain.DayOf(f.T) }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
