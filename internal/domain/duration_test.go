package domain

import (
	"testing"
	"time"
)

func TestDurationFromMillisDecomposition(t *testing.T) {
	ms := 2*millisPerDay + 3*millisPerHour + 4*millisPerMinute + 5*millisPerSecond
	d := DurationFromMillis(ms)

	if d.Milliseconds != ms {
		t.Fatalf("expected %d ms, got %d", ms, d.Milliseconds)
	}
	if d.Days != 2 || d.Hours != 3 || d.Minutes != 4 || d.Seconds != 5 {
		t.Fatalf("unexpected decomposition: %+v", d)
	}
	if d.Human != "2d 3h 4m 5s" {
		t.Fatalf("expected human '2d 3h 4m 5s', got %q", d.Human)
	}
}

func TestDurationFromMillisNegativeFoldsToAbsolute(t *testing.T) {
	d := DurationFromMillis(-90 * millisPerSecond)
	if d.Milliseconds != 90*millisPerSecond {
		t.Fatalf("expected absolute value, got %d", d.Milliseconds)
	}
	if d.Minutes != 1 || d.Seconds != 30 {
		t.Fatalf("unexpected decomposition: %+v", d)
	}
}

func TestDurationZero(t *testing.T) {
	d := DurationFromMillis(0)
	if !d.IsZero() {
		t.Fatal("expected zero duration")
	}
	if d.Human != "0s" {
		t.Fatalf("expected '0s', got %q", d.Human)
	}
}

func TestDurationHumanSkipsEmptyUnits(t *testing.T) {
	d := DurationFromMillis(1*millisPerDay + 30*millisPerSecond)
	if d.Human != "1d 30s" {
		t.Fatalf("expected '1d 30s', got %q", d.Human)
	}
}

func TestDurationBetween(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(25*time.Hour + 30*time.Minute)

	d := DurationBetween(from, to)
	if d.Days != 1 || d.Hours != 1 || d.Minutes != 30 {
		t.Fatalf("unexpected decomposition: %+v", d)
	}

	// Reversed bounds measure the same span.
	reversed := DurationBetween(to, from)
	if reversed.Milliseconds != d.Milliseconds {
		t.Fatalf("expected %d ms, got %d", d.Milliseconds, reversed.Milliseconds)
	}
}
