package verifier

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestProbeAll(t *testing.T) {
	var calls, active, peak int32
	var mu sync.Mutex
	seen := make(map[string]int)

	prober := ProberFunc(func(_ context.Context, target string) Outcome {
		atomic.AddInt32(&calls, 1)
		n := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)

		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}

		mu.Lock()
		seen[target]++
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		return Outcome{URL: target, StatusCode: 200}
	})

	targets := []string{
		"https://a.example/1", "https://a.example/2", "https://a.example/3",
		"https://a.example/1", "https://a.example/4", "https://a.example/5",
	}

	outcomes := ProbeAll(context.Background(), prober, targets, 2)

	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}

	if n := atomic.LoadInt32(&calls); n != 5 {
		t.Errorf("expected duplicates to be probed once, got %d calls", n)
	}

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("expected at most 2 concurrent probes, got %d", p)
	}

	for target, outcome := range outcomes {
		if !outcome.OK() || outcome.URL != target {
			t.Errorf("unexpected outcome for %s: %+v", target, outcome)
		}
		if seen[target] != 1 {
			t.Errorf("%s probed %d times", target, seen[target])
		}
	}
}

func TestProbeAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	prober := ProberFunc(func(context.Context, string) Outcome {
		atomic.AddInt32(&calls, 1)
		return Outcome{StatusCode: 200}
	})

	outcomes := ProbeAll(ctx, prober, []string{"https://a.example/1", "https://a.example/2"}, 1)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("expected no probes after cancellation, got %d", n)
	}

	for target, outcome := range outcomes {
		if !outcome.Failed() {
			t.Errorf("expected %s to be reported as failed, got %+v", target, outcome)
		}
	}
}

func TestProbeAll_Empty(t *testing.T) {
	outcomes := ProbeAll(context.Background(), Static{Fallback: 200}, nil, 0)
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}
