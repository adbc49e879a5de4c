package pipeline

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
)

// task is a unit of work submitted to the pool.
type task func(ctx context.Context)

// pool is a bounded worker pool used to run the phases of one
// topological layer concurrently. Tasks never return errors: phase
// outcomes travel through the runner's result channel, and faults are
// already isolated at the module boundary.
type pool struct {
	tasks      chan task
	maxWorkers int
	wg         sync.WaitGroup
	logger     arbor.ILogger
}

func newPool(maxWorkers int, logger arbor.ILogger) *pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &pool{
		tasks:      make(chan task, maxWorkers*2),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// start begins the workers for one layer.
func (p *pool) start(ctx context.Context) {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// submit adds a task. Blocks when the buffer is full, which bounds the
// amount of queued work to the pool size.
func (p *pool) submit(t task) {
	p.tasks <- t
}

// wait closes the intake and blocks until all submitted tasks finish.
func (p *pool) wait() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for t := range p.tasks {
		// A cancelled context stops new tasks from starting; a task
		// already running completes. There is no mid-phase cancellation.
		if ctx.Err() != nil {
			p.logger.Debug().Int("worker", id).Msg("Skipping task, context cancelled")
			continue
		}
		t(ctx)
	}
}
