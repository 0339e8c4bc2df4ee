package services

import (
	"testing"
	"time"
)

func TestPeriodKey(t *testing.T) {
	// Jan 1, 2026 falls in ISO week 1 of 2026; Jan 3, 2027 is still week 53
	// of 2026 by ISO reckoning.
	tests := []struct {
		name   string
		time   time.Time
		period string
		want   string
	}{
		{name: "daily", time: time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC), period: "daily", want: "2026-02-05"},
		{name: "weekly", time: time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC), period: "weekly", want: "2026-W06"},
		{name: "weekly year boundary", time: time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC), period: "weekly", want: "2026-W53"},
		{name: "monthly", time: time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC), period: "monthly", want: "2026-02"},
		{name: "yearly", time: time.Date(2026, 2, 5, 10, 30, 0, 0, time.UTC), period: "yearly", want: "2026"},
		{name: "unknown defaults to monthly", time: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), period: "hourly", want: "2026-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := periodKey(tt.time, tt.period); got != tt.want {
				t.Errorf("periodKey(%v, %q) = %q, want %q", tt.time, tt.period, got, tt.want)
			}
		})
	}
}
