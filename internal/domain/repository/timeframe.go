package repository

import "time"

// Interval is an exchange kline interval label.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval3m:  3 * time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval2h:  2 * time.Hour,
	Interval4h:  4 * time.Hour,
	Interval6h:  6 * time.Hour,
	Interval8h:  8 * time.Hour,
	Interval12h: 12 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// IsValidInterval returns true if i has a fixed duration.
func IsValidInterval(i Interval) bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration returns the bar length, or zero for unknown labels.
func (i Interval) Duration() time.Duration { return intervalDurations[i] }

func (i Interval) Millis() int64 { return i.Duration().Milliseconds() }

func (i Interval) String() string { return string(i) }

// NormalizeInterval converts raw string to a valid interval (or def).
func NormalizeInterval(s string, def Interval) Interval {
	i := Interval(s)
	if IsValidInterval(i) {
		return i
	}
	return def
}
