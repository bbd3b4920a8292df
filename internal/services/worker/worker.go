// Package worker runs quiz pipelines in the background.
//
// Go Pattern: a buffered channel is the job queue and N goroutines read
// from it. HTTP handlers submit jobs without blocking and answer right
// away; clients poll the session to see progress.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/quiz"
)

// runTimeout bounds a whole pipeline: extraction plus two model calls.
const runTimeout = 5 * time.Minute

var (
	ErrQueueFull  = errors.New("job queue is full; try again later")
	ErrPoolClosed = errors.New("worker pool is shutting down")
)

// Job is one pipeline run for one session.
type Job struct {
	Session   *quiz.Session
	Run       quiz.Run
	CreatedAt time.Time
}

// Runner executes a pipeline run. *quiz.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, s *quiz.Session, run quiz.Run) error
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	jobs    chan Job
	workers int
	runner  Runner
	log     *zap.Logger

	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new worker pool.
func NewPool(workers, queueSize int, runner Runner, log *zap.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		runner:  runner,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.log.Info("starting workers", zap.Int("count", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels in-flight runs and waits for workers to exit.
// Queued jobs that never started are aborted so their sessions go idle.
func (p *Pool) Stop() {
	p.log.Info("stopping workers")

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("all workers stopped")
}

// Submit adds a job to the queue. It never blocks; a full queue is an error.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- stamp(job):
		p.log.Debug("job queued", zap.String("session_id", job.Run.SessionID), zap.Uint64("generation", job.Run.Generation))
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitFunc queues the job returned by build, calling build only once a
// queue slot is held. A full or closed pool returns before build runs, so
// build may mutate state it cannot roll back. Errors from build are
// returned unchanged and nothing is queued.
func (p *Pool) SubmitFunc(build func() (Job, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	// Workers only receive, so with mu held the free slot cannot be taken.
	if len(p.jobs) >= cap(p.jobs) {
		return ErrQueueFull
	}

	job, err := build()
	if err != nil {
		return err
	}

	p.jobs <- stamp(job)
	p.log.Debug("job queued", zap.String("session_id", job.Run.SessionID), zap.Uint64("generation", job.Run.Generation))
	return nil
}

func stamp(job Job) Job {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	return job
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker", id))
	log.Debug("worker started")

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			job.Session.Abort(job.Run, quiz.FailedQueue, fmt.Errorf("server is shutting down"))
			continue
		}

		log.Info("processing job",
			zap.String("session_id", job.Run.SessionID),
			zap.Duration("waited", time.Since(job.CreatedAt)),
		)

		ctx, cancel := context.WithTimeout(p.ctx, runTimeout)
		err := p.runner.Run(ctx, job.Session, job.Run)
		cancel()

		if err != nil {
			log.Warn("job failed", zap.String("session_id", job.Run.SessionID), zap.Error(err))
		} else {
			log.Info("job completed", zap.String("session_id", job.Run.SessionID))
		}
	}

	log.Debug("worker stopped")
}
