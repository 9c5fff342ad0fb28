// Package batch runs many independent optimization sessions concurrently,
// one goroutine-owned Cluster/Memo/Optimizer per request — sessions never
// share memo state, since a Cluster or Memo is not safe for concurrent use
// from multiple goroutines; one session per goroutine.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/xform"
)

// Request is one optimization to run: the logical root to optimize and the
// trait set the winning plan must satisfy.
type Request struct {
	Root     opt.Expr
	Required opt.TraitSet
}

// Session builds a fresh, independent Optimizer for one Request. Every
// call must return an Optimizer backed by its own Cluster and Memo — the
// pool calls this once per request, from whichever goroutine runs it.
type Session func(req Request) (*xform.Optimizer, error)

// Result is one request's outcome: the winning plan, or the error that
// session ended with. Pool.Run returns results in request order, so a
// Result's position in the slice identifies its request.
type Result struct {
	Plan *xform.Plan
	Err  error
}

// Pool runs a fixed number of worker goroutines that pull requests off a
// shared channel, each building and driving its own optimization session.
type Pool struct {
	workerCount int
	newSession  Session
}

// NewPool builds a Pool with workerCount worker goroutines (0 means
// runtime.NumCPU) that build sessions via newSession.
func NewPool(workerCount int, newSession Session) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &Pool{workerCount: workerCount, newSession: newSession}
}

// Run optimizes every request concurrently and returns results in the same
// order as reqs. A single request's failure doesn't abort the others; it's
// reported in that request's own Result.
func (p *Pool) Run(ctx context.Context, reqs []Request) []Result {
	if len(reqs) == 0 {
		return nil
	}

	results := make([]Result, len(reqs))
	jobs := make(chan int, len(reqs))

	var wg sync.WaitGroup
	for w := 0; w < p.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.runOne(ctx, reqs[idx])
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pool) runOne(ctx context.Context, req Request) Result {
	optimizer, err := p.newSession(req)
	if err != nil {
		return Result{Err: fmt.Errorf("batch: building session: %w", err)}
	}
	plan, err := optimizer.Optimize(ctx, req.Root, req.Required)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Plan: plan}
}

// WorkerCount returns the number of worker goroutines the pool runs.
func (p *Pool) WorkerCount() int { return p.workerCount }
