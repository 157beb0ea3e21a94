package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/chunyu/logs2weekly-go/internal/aggregator"
)

func TestFormatDigest(t *testing.T) {
	stats := aggregator.CycleStats{
		Users:     5,
		Summaries: 3,
		NoOps:     1,
		Failures:  1,
		Duration:  2500 * time.Millisecond,
	}

	got := formatDigest(stats)

	for _, want := range []string{
		"Users: 5",
		"Summaries created: 3",
		"No-ops: 1",
		"Failures: 1",
		"Duration: 2.5s",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatDigest() missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDigestEmptyCycle(t *testing.T) {
	got := formatDigest(aggregator.CycleStats{})

	if !strings.Contains(got, "Users: 0") {
		t.Errorf("formatDigest() for an empty cycle:\n%s", got)
	}
	if !strings.Contains(got, "Duration: 0.0s") {
		t.Errorf("formatDigest() duration formatting:\n%s", got)
	}
}
