package f1_test

import (
	"testing"
	"time"

	"github.com/i474232898/f1-sensors/internal/f1"
)

func TestRetryPolicyBackoff(t *testing.T) {
	p := f1.RetryPolicy{MaxAttempts: 4, Delay: 500 * time.Millisecond, MaxDelay: 3 * time.Second, Multiplier: 2}

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %s, want %s", i+1, got, w)
		}
	}

	if p.Exhausted(3) || !p.Exhausted(4) {
		t.Fatalf("Exhausted(3) = %v, Exhausted(4) = %v", p.Exhausted(3), p.Exhausted(4))
	}
}

func TestDefaultRetryPolicyIsUnboundedConstant(t *testing.T) {
	p := f1.DefaultRetryPolicy()
	if p.Exhausted(1000) {
		t.Fatalf("default policy gave up")
	}
	if p.Backoff(1) != 5*time.Second || p.Backoff(10) != 5*time.Second {
		t.Fatalf("default delays = %s, %s, want 5s", p.Backoff(1), p.Backoff(10))
	}
}
