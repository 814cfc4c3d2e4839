package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs concurrently on a fixed number of workers. It bounds the
// number of in-flight per-claim pipelines so external services see at most
// that many simultaneous calls.
type Pool struct {
	workers  int
	jobQueue chan Job
	results  chan Result
	wg       sync.WaitGroup

	collected   []Result
	collectDone chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:     workers,
		jobQueue:    make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		collectDone: make(chan struct{}),
	}
}

// Start starts the workers and the result collector. The collector drains
// results continuously, so callers may submit batches of any size before
// calling Wait without the pool backing up. The context governs the whole
// batch: once it is cancelled no new jobs are picked up, though the job
// currently running on each worker finishes (or aborts on its own ctx
// checks).
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	go p.collect()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(ctx)
			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// collect accumulates results as they complete. Only the collector reads
// p.collected until collectDone closes, so no lock is needed.
func (p *Pool) collect() {
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
	close(p.collectDone)
}

// Submit submits a job for execution. Returns false if the batch context
// is already cancelled.
func (p *Pool) Submit(ctx context.Context, job Job) bool {
	select {
	case <-ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait signals that no more jobs will be submitted, waits for the workers
// and the collector to drain, and returns all results. Result order
// follows completion, not submission; callers that need input order must
// carry an index in their results.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.results)
	<-p.collectDone

	return p.collected
}
