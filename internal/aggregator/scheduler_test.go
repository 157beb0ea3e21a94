package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chunyu/logs2weekly-go/internal/ai"
	"github.com/chunyu/logs2weekly-go/internal/store"
)

func TestNextRunAt(t *testing.T) {
	day := func(hour, minute int) time.Time {
		return time.Date(2026, time.August, 30, hour, minute, 0, 0, time.Local)
	}

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the run hour, same day",
			now:  day(17, 0),
			hour: 18,
			want: day(18, 0),
		},
		{
			name: "after the run hour, next day",
			now:  day(19, 0),
			hour: 18,
			want: day(18, 0).AddDate(0, 0, 1),
		},
		{
			name: "exactly at the run hour, next day",
			now:  day(18, 0),
			hour: 18,
			want: day(18, 0).AddDate(0, 0, 1),
		},
		{
			name: "one minute past, next day",
			now:  day(18, 1),
			hour: 18,
			want: day(18, 0).AddDate(0, 0, 1),
		},
		{
			name: "midnight run hour",
			now:  day(12, 0),
			hour: 0,
			want: day(0, 0).AddDate(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRunAt(tt.now, tt.hour)
			if !got.Equal(tt.want) {
				t.Errorf("NextRunAt(%v, %d) = %v, want %v", tt.now, tt.hour, got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("NextRunAt() = %v, must be strictly after now %v", got, tt.now)
			}
		})
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	gw := newStubGateway()
	agg := newTestAggregator(t, gw, &stubProvider{text: "x"})
	s := NewScheduler(agg, 18, newTestLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}

func TestRunCycle(t *testing.T) {
	gw := newStubGateway()
	gw.userIDs = []int64{1, 2, 3}
	gw.entries = []store.LogEntry{
		todayEntry(10, 1, "wrote docs"),
		todayEntry(11, 3, "fixed bug"),
	}
	agg := newTestAggregator(t, gw, &stubProvider{text: "Summary text"})
	s := NewScheduler(agg, 18, newTestLogger(t), nil)

	stats := s.runCycle(context.Background())

	if stats.Users != 3 {
		t.Errorf("stats.Users = %d, want 3", stats.Users)
	}
	if stats.Summaries != 2 {
		t.Errorf("stats.Summaries = %d, want 2", stats.Summaries)
	}
	if stats.NoOps != 1 {
		t.Errorf("stats.NoOps = %d, want 1", stats.NoOps)
	}
	if stats.Failures != 0 {
		t.Errorf("stats.Failures = %d, want 0", stats.Failures)
	}
}

func TestRunCycleIsolatesFailures(t *testing.T) {
	gw := newStubGateway()
	gw.userIDs = []int64{1, 2}
	gw.entries = []store.LogEntry{
		todayEntry(10, 1, "wrote docs"),
		todayEntry(11, 2, "fixed bug"),
	}
	// The first user's provider fails; the second must still be aggregated.
	provider := &stubProvider{text: "Summary text"}
	agg := newTestAggregator(t, gw, provider)

	failFirst := true
	agg.newProvider = func(s ai.Settings) (ai.Provider, error) {
		if failFirst {
			failFirst = false
			return nil, errors.New("factory failure")
		}
		return provider, nil
	}

	s := NewScheduler(agg, 18, newTestLogger(t), nil)
	stats := s.runCycle(context.Background())

	if stats.Failures != 1 {
		t.Errorf("stats.Failures = %d, want 1", stats.Failures)
	}
	if stats.Summaries != 1 {
		t.Errorf("stats.Summaries = %d, want 1", stats.Summaries)
	}
}
