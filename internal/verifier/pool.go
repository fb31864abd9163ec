package verifier

import (
	"context"
	"sync"
)

// DefaultWorkers is the pool size used when none is given.
const DefaultWorkers = 4

// Result pairs a submitted target with its probe outcome.
type Result struct {
	Target  string
	Outcome Outcome
}

// Pool probes URLs concurrently with a fixed number of workers.
type Pool struct {
	prober     Prober
	tasks      chan string
	results    chan Result
	wg         sync.WaitGroup
	numWorkers int
}

// NewPool creates a pool. A non-positive numWorkers uses DefaultWorkers.
func NewPool(prober Prober, numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}

	return &Pool{
		prober:     prober,
		numWorkers: numWorkers,
		tasks:      make(chan string, numWorkers*2),
		results:    make(chan Result, numWorkers*2),
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for target := range p.tasks {
		if err := ctx.Err(); err != nil {
			p.results <- Result{Target: target, Outcome: Outcome{URL: target, Error: err.Error()}}
			continue
		}

		p.results <- Result{Target: target, Outcome: p.prober.Probe(ctx, target)}
	}
}

// Submit queues a target. It reports false if ctx ended first.
func (p *Pool) Submit(ctx context.Context, target string) bool {
	select {
	case p.tasks <- target:
		return true
	case <-ctx.Done():
		return false
	}
}

// Results returns the channel of finished probes. It is closed by Wait.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Wait stops accepting tasks, waits for the workers and closes Results.
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
	close(p.results)
}

// ProbeAll probes each distinct target once and returns the outcomes keyed by
// target. Targets not submitted before ctx ended are missing from the map.
func ProbeAll(ctx context.Context, prober Prober, targets []string, numWorkers int) map[string]Outcome {
	pool := NewPool(prober, numWorkers)
	pool.Start(ctx)

	go func() {
		defer pool.Wait()

		seen := make(map[string]struct{}, len(targets))
		for _, target := range targets {
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}

			if !pool.Submit(ctx, target) {
				return
			}
		}
	}()

	outcomes := make(map[string]Outcome, len(targets))
	for result := range pool.Results() {
		outcomes[result.Target] = result.Outcome
	}

	return outcomes
}
