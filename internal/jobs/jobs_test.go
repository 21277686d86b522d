package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	dbfs "github.com/garnizeh/pawfect/db"
	"github.com/garnizeh/pawfect/internal/db"
	"github.com/garnizeh/pawfect/internal/jobs"
)

type fakeClock struct{ t atomic.Int64 }

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.t.Store(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli())
	return c
}

func (c *fakeClock) Now() time.Time          { return time.UnixMilli(c.t.Load()) }
func (c *fakeClock) Advance(d time.Duration) { c.t.Add(d.Milliseconds()) }

func setup(t *testing.T) (*jobs.Repository, *jobs.WorkerPool, *fakeClock) {
	t.Helper()
	ctx := context.Background()
	d, err := db.New(ctx, db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := jobs.NewRepository(d)
	pool := jobs.NewWorkerPool(repo, nil, 1, 10*time.Millisecond)
	clock := newFakeClock()
	pool.SetClock(clock.Now)
	return repo, pool, clock
}

func TestEnqueue_RespectsDelay(t *testing.T) {
	ctx := context.Background()
	repo, pool, clock := setup(t)

	var calls atomic.Int32
	pool.Handle("test", func(ctx context.Context, j *jobs.Job) error {
		var p map[string]string
		if err := j.Decode(&p); err != nil {
			return err
		}
		if p["foo"] != "bar" {
			return fmt.Errorf("unexpected payload %v", p)
		}
		calls.Add(1)
		return nil
	})

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, time.Second, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	processed, err := pool.RunOnce(ctx)
	if err != nil || processed {
		t.Fatalf("job must not run before its delay: processed=%v err=%v", processed, err)
	}

	clock.Advance(time.Second)
	processed, err = pool.RunOnce(ctx)
	if err != nil || !processed {
		t.Fatalf("expected job to run: processed=%v err=%v", processed, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls.Load())
	}

	j, err := repo.Get(ctx, id)
	if err != nil || j == nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != jobs.StatusDone {
		t.Fatalf("expected done, got %q", j.Status)
	}

	// nothing left
	if processed, _ := pool.RunOnce(ctx); processed {
		t.Fatalf("done job must not be claimed again")
	}
}

func TestSingleAttemptFailureIsDeadLettered(t *testing.T) {
	ctx := context.Background()
	repo, pool, _ := setup(t)

	var calls atomic.Int32
	pool.Handle("mail", func(ctx context.Context, j *jobs.Job) error {
		calls.Add(1)
		return errors.New("smtp down")
	})

	id, err := pool.Enqueue(ctx, "mail", struct{}{}, 0, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if processed, err := pool.RunOnce(ctx); err != nil || !processed {
		t.Fatalf("RunOnce: processed=%v err=%v", processed, err)
	}
	if processed, _ := pool.RunOnce(ctx); processed {
		t.Fatalf("failed job must not be retried")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls.Load())
	}

	j, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j != nil {
		t.Fatalf("expected job to be removed from jobs table")
	}
	n, err := repo.CountDeadLetters(ctx, "mail")
	if err != nil {
		t.Fatalf("count dead letters: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 dead letter, got %d", n)
	}
}

func TestCancelledMidHandler(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr bool
		wantStatus string
		wantDead   int
	}{
		{"failure is dead-lettered, not retried", true, "", 1},
		{"success is still marked done", false, jobs.StatusDone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, pool, clock := setup(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Handle("mail", func(hctx context.Context, j *jobs.Job) error {
				cancel()
				if tt.handlerErr {
					return hctx.Err()
				}
				return nil
			})

			id, err := pool.Enqueue(ctx, "mail", nil, 0, 3)
			if err != nil {
				t.Fatalf("enqueue: %v", err)
			}
			if processed, err := pool.RunOnce(ctx); err != nil || !processed {
				t.Fatalf("RunOnce: processed=%v err=%v", processed, err)
			}

			bg := context.Background()
			clock.Advance(time.Hour)
			if processed, _ := pool.RunOnce(bg); processed {
				t.Fatalf("job must not run again")
			}

			j, err := repo.Get(bg, id)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if tt.wantStatus == "" && j != nil {
				t.Fatalf("expected job to leave the jobs table, got %+v", j)
			}
			if tt.wantStatus != "" && (j == nil || j.Status != tt.wantStatus) {
				t.Fatalf("expected status %q, got %+v", tt.wantStatus, j)
			}
			n, err := repo.CountDeadLetters(bg, "mail")
			if err != nil || n != tt.wantDead {
				t.Fatalf("expected %d dead letters, got %d (%v)", tt.wantDead, n, err)
			}
		})
	}
}

func TestRecoverInterrupted(t *testing.T) {
	ctx := context.Background()
	repo, pool, clock := setup(t)

	stuck, err := pool.Enqueue(ctx, "mail", nil, 0, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// claimed by a process that never finished it
	if j, err := repo.FetchNext(ctx, clock.Now()); err != nil || j == nil || j.ID != stuck {
		t.Fatalf("claim: %+v %v", j, err)
	}
	waiting, err := pool.Enqueue(ctx, "mail", nil, time.Minute, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	n, err := pool.RecoverInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RecoverInterrupted: n=%d err=%v", n, err)
	}
	if j, _ := repo.Get(ctx, stuck); j != nil {
		t.Fatalf("interrupted job should be dead-lettered, got %+v", j)
	}
	if j, _ := repo.Get(ctx, waiting); j == nil || j.Status != jobs.StatusQueued {
		t.Fatalf("queued job must be untouched, got %+v", j)
	}
	if dl, err := repo.CountDeadLetters(ctx, "mail"); err != nil || dl != 1 {
		t.Fatalf("expected 1 dead letter, got %d (%v)", dl, err)
	}
	if n, err := pool.RecoverInterrupted(ctx); err != nil || n != 0 {
		t.Fatalf("second recovery: n=%d err=%v", n, err)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	repo, pool, clock := setup(t)

	var calls atomic.Int32
	pool.Handle("flaky", func(ctx context.Context, j *jobs.Job) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})

	id, err := pool.Enqueue(ctx, "flaky", nil, 0, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := pool.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	j, _ := repo.Get(ctx, id)
	if j == nil || j.Status != jobs.StatusQueued || j.Attempts != 1 || j.LastError != "transient" {
		t.Fatalf("unexpected job after first failure: %+v", j)
	}

	if processed, _ := pool.RunOnce(ctx); processed {
		t.Fatalf("retry must wait for backoff")
	}
	clock.Advance(jobs.BackoffDuration(1))
	if processed, err := pool.RunOnce(ctx); err != nil || !processed {
		t.Fatalf("expected retry to run: processed=%v err=%v", processed, err)
	}
	j, _ = repo.Get(ctx, id)
	if j == nil || j.Status != jobs.StatusDone {
		t.Fatalf("expected done after retry, got %+v", j)
	}
}

func TestUnknownTypeAndPanic(t *testing.T) {
	ctx := context.Background()
	repo, pool, _ := setup(t)

	pool.Handle("boom", func(ctx context.Context, j *jobs.Job) error {
		panic("kaboom")
	})

	if _, err := pool.Enqueue(ctx, "nobody", nil, 0, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := pool.Enqueue(ctx, "boom", nil, 0, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	for i := 0; i < 2; i++ {
		if processed, err := pool.RunOnce(ctx); err != nil || !processed {
			t.Fatalf("RunOnce %d: processed=%v err=%v", i, processed, err)
		}
	}
	for _, typ := range []string{"nobody", "boom"} {
		n, err := repo.CountDeadLetters(ctx, typ)
		if err != nil || n != 1 {
			t.Fatalf("%s: expected 1 dead letter, got %d (%v)", typ, n, err)
		}
	}
}

func TestWorkersProcessInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, pool, _ := setup(t)

	handled := make(chan struct{}, 1)
	pool.Handle("test", func(ctx context.Context, j *jobs.Job) error {
		handled <- struct{}{}
		return nil
	})
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 0, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-handled:
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{20, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := jobs.BackoffDuration(tt.attempt); got != tt.want {
			t.Fatalf("attempt %d: got %v want %v", tt.attempt, got, tt.want)
		}
	}
}
