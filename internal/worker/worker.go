package worker

import (
	"context"
	"sync"
)

// ProcessFunc handles one job. Errors are the processor's to log and count;
// the pool does not retry.
type ProcessFunc[T any] func(ctx context.Context, job T) error

// Pool is a bounded worker pool over a typed job channel. The importer
// feeds parsed event records through it so file ingestion keeps up with
// large drops.
type Pool[T any] struct {
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup
}

func NewPool[T any](numWorkers, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	return &Pool[T]{
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, job)
		}
	}
}

func (p *Pool[T]) Submit(job T) {
	p.jobs <- job
}

// Stop closes the job channel and waits for in-flight work to finish.
func (p *Pool[T]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
