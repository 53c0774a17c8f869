package orchestrator

import (
	"testing"
	"time"

	"github.com/plandrive/engine/config"
)

func TestBackoffDelayDoublesUntilMax(t *testing.T) {
	policy := config.RetryPolicy{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  1 * time.Second,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}
	for _, c := range cases {
		got := backoffDelay(policy, c.attempt)
		if got != c.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffDelayNoMaxGrowsUnbounded(t *testing.T) {
	policy := config.RetryPolicy{BaseDelay: 1 * time.Second}
	got := backoffDelay(policy, 4)
	want := 8 * time.Second
	if got != want {
		t.Errorf("backoffDelay = %v, want %v", got, want)
	}
}
