package domain

import (
	"fmt"
	"strings"
	"time"
)

// Duration decomposes a millisecond span into human units. It is always
// derived from a single millisecond value; negative inputs are treated as
// clock skew and folded to their absolute value.
type Duration struct {
	Milliseconds int64  `json:"milliseconds"`
	Days         int64  `json:"days"`
	Hours        int64  `json:"hours"`
	Minutes      int64  `json:"minutes"`
	Seconds      int64  `json:"seconds"`
	Human        string `json:"human"`
}

const (
	millisPerSecond = int64(1000)
	millisPerMinute = 60 * millisPerSecond
	millisPerHour   = 60 * millisPerMinute
	millisPerDay    = 24 * millisPerHour
)

// DurationFromMillis builds a Duration from |ms|.
func DurationFromMillis(ms int64) Duration {
	if ms < 0 {
		ms = -ms
	}
	d := Duration{Milliseconds: ms}
	rest := ms
	d.Days = rest / millisPerDay
	rest %= millisPerDay
	d.Hours = rest / millisPerHour
	rest %= millisPerHour
	d.Minutes = rest / millisPerMinute
	rest %= millisPerMinute
	d.Seconds = rest / millisPerSecond
	d.Human = humanize(d)
	return d
}

// DurationBetween measures the span between two instants.
func DurationBetween(from, to time.Time) Duration {
	return DurationFromMillis(to.Sub(from).Milliseconds())
}

// IsZero reports whether the duration spans no time.
func (d Duration) IsZero() bool {
	return d.Milliseconds == 0
}

func humanize(d Duration) string {
	parts := make([]string, 0, 4)
	if d.Days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", d.Days))
	}
	if d.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", d.Hours))
	}
	if d.Minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", d.Minutes))
	}
	if d.Seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", d.Seconds))
	}
	return strings.Join(parts, " ")
}
