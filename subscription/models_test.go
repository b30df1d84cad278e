package subscription

import (
	"testing"
	"time"
)

func TestDue(t *testing.T) {
	base := time.Unix(86400, 0).UTC()
	sub := Subscription{NextBillingTime: base}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second early", base.Add(-time.Second), false},
		{"exactly at due time", base, true},
		{"after due time", base.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sub.Due(tt.now); got != tt.want {
				t.Errorf("Due(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestAdvanceIsDriftFree(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	sub := Subscription{
		StartTime:       start,
		NextBillingTime: start.Add(24 * time.Hour),
	}

	// Advancing always steps from the scheduled time, never from the
	// wall clock, so N advances land exactly N frequencies out.
	for i := 2; i <= 5; i++ {
		sub.Advance(24 * time.Hour)
		want := start.Add(time.Duration(i) * 24 * time.Hour)
		if !sub.NextBillingTime.Equal(want) {
			t.Fatalf("after %d advances: due = %v, want %v", i-1, sub.NextBillingTime, want)
		}
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusActive, true},
		{StatusPaused, false},
		{StatusCanceled, false},
	}
	for _, tt := range tests {
		sub := Subscription{Status: tt.status}
		if got := sub.IsActive(); got != tt.want {
			t.Errorf("IsActive() with %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
