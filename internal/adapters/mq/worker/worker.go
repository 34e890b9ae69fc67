// Package worker runs travel-estimate jobs on a bounded pool of goroutines.
//
// The pool caps the number of concurrent outbound routing calls across all
// requests. Dispatcher puts the pool behind the travel.Estimator contract.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/fairmeet/internal/adapters/mq/queue"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/travel"
	"github.com/okian/fairmeet/pkg/logger"
	"github.com/okian/fairmeet/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Enqueuer defines how the dispatcher submits jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j Job) bool
}

// Worker processes estimate jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	estimator travel.Estimator
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, estimator travel.Estimator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		estimator: estimator,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job and always answers its requester.
func (w *InMemoryWorker) process(j Job) {
	start := time.Now()
	metrics.IncWorkerBusy()
	defer func() {
		metrics.DecWorkerBusy()
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx := j.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		// requester gave up while the job was queued
		send(j, queue.Result{Err: fmt.Errorf("estimate abandoned: %w", err)})
		return
	}

	sample, err := w.estimator.Estimate(ctx, j.Origin, j.Destination)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "estimate_error")
		w.logger.Debug(ctx, "estimate failed", logger.Error(err))
	}
	send(j, queue.Result{Sample: sample, Err: err})
}

func send(j Job, r queue.Result) {
	select {
	case j.Reply <- r:
	default:
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	shutdown chan struct{}
	stopped  atomic.Bool
	logger   logger.Logger
}

// NewPool creates a new worker pool. A non-positive count picks a multiple of the CPU count.
func NewPool(workerCount int, q Queue, estimator travel.Estimator) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, estimator, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}

// Dispatcher implements travel.Estimator by handing each estimate to the pool.
type Dispatcher struct {
	queue Enqueuer
}

// NewDispatcher returns an estimator that submits jobs to q.
func NewDispatcher(q Enqueuer) *Dispatcher {
	return &Dispatcher{queue: q}
}

// Estimate implements travel.Estimator. A full queue fails fast with ErrBackpressure.
func (d *Dispatcher) Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	reply := make(chan queue.Result, 1)
	if !d.queue.Enqueue(ctx, Job{Ctx: ctx, Origin: origin, Destination: destination, Reply: reply}) {
		metrics.RecordTravelEstimateError("pool")
		return model.TravelSample{}, ErrBackpressure
	}
	select {
	case r := <-reply:
		return r.Sample, r.Err
	case <-ctx.Done():
		return model.TravelSample{}, fmt.Errorf("waiting for estimate: %w", ctx.Err())
	}
}
