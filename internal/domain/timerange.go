package domain

import (
	"fmt"
	"time"
)

// TimeRange is a half-open interval [start, end)
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange creates a time range, requiring start < end
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("%w: start %s, end %s", ErrInvalidTimeRange, start, end)
	}
	return TimeRange{start: start, end: end}, nil
}

// Start returns the inclusive lower bound
func (r TimeRange) Start() time.Time {
	return r.start
}

// End returns the exclusive upper bound
func (r TimeRange) End() time.Time {
	return r.end
}

// Duration returns the length of the range
func (r TimeRange) Duration() time.Duration {
	return r.end.Sub(r.start)
}

// Contains reports whether t falls inside [start, end)
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

// Overlaps reports whether two half-open ranges intersect
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}
