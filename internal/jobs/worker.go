package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkerPool polls the jobs table and dispatches due jobs to handlers keyed
// by job type. Handlers run on the pool's context, never on the context of
// the request that enqueued the job.
type WorkerPool struct {
	repo         *Repository
	logger       *zap.Logger
	workerCount  int
	pollInterval time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewWorkerPool(repo *Repository, logger *zap.Logger, workerCount int, pollInterval time.Duration) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		repo:         repo,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		now:          time.Now,
		handlers:     make(map[string]Handler),
		stop:         make(chan struct{}),
	}
}

// Handle registers h for jobs of type typ. Call before Start.
func (p *WorkerPool) Handle(typ string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[typ] = h
}

// SetClock overrides the time source used for scheduling and claiming.
func (p *WorkerPool) SetClock(now func() time.Time) {
	p.now = now
}

// Start launches the worker goroutines
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them. It is safe to call more
// than once.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// Run starts the workers and blocks until ctx is done, then waits for them
// to exit.
func (p *WorkerPool) Run(ctx context.Context) error {
	if _, err := p.RecoverInterrupted(ctx); err != nil {
		p.logger.Error("recover interrupted jobs", zap.Error(err))
	}
	p.Start(ctx)
	<-ctx.Done()
	p.Stop()
	return nil
}

// RecoverInterrupted dead-letters jobs left running by a previous process.
// Their handler may already have delivered, so they are never re-run.
func (p *WorkerPool) RecoverInterrupted(ctx context.Context) (int, error) {
	n, err := p.repo.DeadLetterRunning(ctx, ErrInterrupted.Error(), p.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Warn("interrupted jobs dead-lettered", zap.Int("count", n))
	}
	return n, nil
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		// drain everything that is due before sleeping again
		for {
			processed, err := p.RunOnce(ctx)
			if err != nil {
				p.logger.Error("fetch job", zap.Int("worker", id), zap.Error(err))
				break
			}
			if !processed {
				break
			}
		}

		select {
		case <-p.stop:
			p.logger.Debug("worker stopping", zap.Int("worker", id))
			return
		case <-ctx.Done():
			p.logger.Debug("context canceled, worker exiting", zap.Int("worker", id))
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes at most one due job. It reports whether a
// job was processed.
func (p *WorkerPool) RunOnce(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	job, err := p.repo.FetchNext(ctx, p.now())
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	p.process(ctx, job)
	return true, nil
}

func (p *WorkerPool) process(ctx context.Context, job *Job) {
	log := p.logger.With(zap.Int64("job_id", job.ID), zap.String("job_type", job.Type))
	// bookkeeping must land even when shutdown cancels ctx mid-handler
	bctx := context.WithoutCancel(ctx)

	p.mu.RLock()
	h, ok := p.handlers[job.Type]
	p.mu.RUnlock()
	if !ok {
		job.Status = StatusFailed
		job.LastError = ErrNoHandler.Error()
		if err := p.repo.MoveToDeadLetter(bctx, job); err != nil {
			log.Error("move to dead letter", zap.Error(err))
		}
		log.Warn("job has no handler")
		return
	}

	err := p.invoke(ctx, h, job)
	if err == nil {
		job.Status = StatusDone
		if upErr := p.repo.UpdateJob(bctx, job); upErr != nil {
			log.Error("mark job done", zap.Error(upErr))
		}
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts || ctx.Err() != nil {
		job.Status = StatusFailed
		if mvErr := p.repo.MoveToDeadLetter(bctx, job); mvErr != nil {
			log.Error("move to dead letter", zap.Error(mvErr))
		}
		log.Warn("job failed permanently", zap.Int("attempts", job.Attempts), zap.Error(err))
		return
	}

	job.Status = StatusQueued
	job.ScheduledAt = p.now().Add(BackoffDuration(job.Attempts))
	if upErr := p.repo.UpdateJob(bctx, job); upErr != nil {
		log.Error("update job for retry", zap.Error(upErr))
	}
}

func (p *WorkerPool) invoke(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, job)
}

// Enqueue persists a job of type typ that becomes due after delay.
func (p *WorkerPool) Enqueue(ctx context.Context, typ string, payload any, delay time.Duration, maxAttempts int) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	now := p.now()
	j := &Job{Type: typ, Payload: b, MaxAttempts: maxAttempts, ScheduledAt: now.Add(delay)}
	return p.repo.Enqueue(ctx, j, now)
}
