package domain

import (
	"fmt"
	"time"
)

// approxEastern is the single canonical US-Eastern approximation used
// everywhere market-hours or weekend checks are needed. It is a fixed
// UTC-5 offset and deliberately ignores DST; a real trading-calendar
// lookup would replace it if that precision ever matters.
var approxEastern = time.FixedZone("ET-approx", -5*60*60)

const (
	marketOpenHour  = 9
	marketCloseHour = 16
)

// Timestamp is a timezone-aware instant. Values constructed from
// zone-less sources are treated as UTC.
type Timestamp struct {
	t time.Time
}

// NewTimestamp creates a timestamp from a time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// NewTimestampUTC creates a timestamp at the given UTC wall-clock instant
func NewTimestampUTC(year int, month time.Month, day, hour, min, sec int) Timestamp {
	return Timestamp{t: time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

// Time returns the underlying time.Time
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// TradingDate returns the calendar date of the instant in its own zone
func (ts Timestamp) TradingDate() TradingDate {
	return TradingDateOf(ts.t)
}

// IsMarketHours reports whether the instant falls inside the simplified
// 09:00-16:00 regular session window in approximate Eastern time
func (ts Timestamp) IsMarketHours() bool {
	h := ts.t.In(approxEastern).Hour()
	return h >= marketOpenHour && h < marketCloseHour
}

// IsWeekend reports whether the instant falls on a Saturday or Sunday
// in approximate Eastern time
func (ts Timestamp) IsWeekend() bool {
	wd := ts.t.In(approxEastern).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Before reports whether ts is strictly before other
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.t.Before(other.t)
}

// After reports whether ts is strictly after other
func (ts Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

// Equal reports whether two timestamps denote the same instant
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// UnixNano returns the instant as nanoseconds since the Unix epoch
func (ts Timestamp) UnixNano() int64 {
	return ts.t.UnixNano()
}

func (ts Timestamp) String() string {
	return ts.t.Format(time.RFC3339)
}

// TradingDate is a calendar date used as a partition and grouping key
type TradingDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewTradingDate creates a trading date from its components
func NewTradingDate(year int, month time.Month, day int) TradingDate {
	return TradingDate{Year: year, Month: month, Day: day}
}

// TradingDateOf returns the calendar date of t in its own zone
func TradingDateOf(t time.Time) TradingDate {
	y, m, d := t.Date()
	return TradingDate{Year: y, Month: m, Day: d}
}

// ParseTradingDate parses a date in YYYY-MM-DD form
func ParseTradingDate(s string) (TradingDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TradingDate{}, fmt.Errorf("invalid trading date %q: %w", s, err)
	}
	return TradingDateOf(t), nil
}

// Time returns midnight UTC of the trading date
func (d TradingDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d TradingDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
