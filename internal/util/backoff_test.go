package util

import (
	"log/slog"
	"testing"
	"time"
)

func TestBackoffGrowth(t *testing.T) {
	base := 500 * time.Millisecond
	cap := 30 * time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		d := Backoff(attempt, base, cap)
		if d < prev {
			t.Errorf("Backoff(%d) = %v, shorter than previous %v", attempt, d, prev)
		}
		if d > cap {
			t.Errorf("Backoff(%d) = %v exceeds cap %v", attempt, d, cap)
		}
		prev = d
	}

	if got := Backoff(0, base, cap); got != base {
		t.Errorf("Backoff(0) = %v, want base %v", got, base)
	}
	if got := Backoff(1, base, cap); got != 2*base {
		t.Errorf("Backoff(1) = %v, want %v", got, 2*base)
	}
	// Far past the doubling horizon the schedule pins at the cap.
	if got := Backoff(100, base, cap); got != cap {
		t.Errorf("Backoff(100) = %v, want cap %v", got, cap)
	}
}

func TestBackoffNegativeAttempt(t *testing.T) {
	base := time.Second
	if got := Backoff(-3, base, time.Minute); got != base {
		t.Errorf("Backoff(-3) = %v, want base %v", got, base)
	}
}

func TestJitterBounds(t *testing.T) {
	d := 2 * time.Second
	for i := 0; i < 100; i++ {
		j := Jitter(d, 0.5)
		if j < d || j >= d+time.Second {
			t.Fatalf("Jitter(%v, 0.5) = %v, want within [%v, %v)", d, j, d, d+time.Second)
		}
	}

	if got := Jitter(d, 0); got != d {
		t.Errorf("Jitter with zero frac = %v, want %v unchanged", got, d)
	}
	if got := Jitter(d, 1.5); got != d {
		t.Errorf("Jitter with frac > 1 = %v, want %v unchanged", got, d)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		for _, format := range []string{"json", "text", ""} {
			if NewLogger(level, format) == nil {
				t.Fatalf("NewLogger(%q, %q) returned nil", level, format)
			}
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
