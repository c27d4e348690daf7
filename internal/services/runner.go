package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"photoedit/config"
	"photoedit/internal/editor"
	"photoedit/types"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type EditJob struct {
	JobID     string
	SessionID string
	Attempt   *editor.Attempt
}

var (
	ErrRunnerShuttingDown = errors.New("service shutting down")
	ErrEditQueueFull      = errors.New("edit queue full")
)

const (
	eventCompleted = "edit.completed"
	eventFailed    = "edit.failed"
)

// EditRunner executes validated attempts off the request path and reports
// each settle to the session's socket.
type EditRunner struct {
	hub     *Hub
	metrics *Metrics

	queue chan EditJob
	group errgroup.Group

	mu      sync.RWMutex
	closing bool
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewEditRunner(ctx context.Context, hub *Hub, metrics *Metrics, cfg config.RunnerConfig) *EditRunner {
	ctx, cancel := context.WithCancel(ctx)
	r := &EditRunner{
		hub:     hub,
		metrics: metrics,
		queue:   make(chan EditJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.group.SetLimit(cfg.MaxConcurrent)
	return r
}

func (r *EditRunner) Run() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closing {
		return
	}
	r.started = true

	go func() {
		defer close(r.done)
		for job := range r.queue {
			jobCopy := job
			r.group.Go(func() error {
				r.runJob(jobCopy)
				return nil
			})
		}
	}()
}

func (r *EditRunner) Enqueue(job EditJob) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closing {
		return ErrRunnerShuttingDown
	}
	select {
	case r.queue <- job:
		return nil
	default:
		return ErrEditQueueFull
	}
}

// Shutdown stops intake, cancels requests still waiting on the backend and
// waits for every queued attempt to settle.
func (r *EditRunner) Shutdown() {
	r.mu.Lock()
	if !r.closing {
		r.closing = true
		close(r.queue)
	}
	started := r.started
	r.mu.Unlock()
	r.cancel()
	if started {
		<-r.done
	}
	_ = r.group.Wait()
}

func (r *EditRunner) runJob(job EditJob) {
	logger := log.With("component", "runner", "jobId", job.JobID, "sessionId", job.SessionID)

	if err := r.ctx.Err(); err != nil {
		out := job.Attempt.Abort(ErrRunnerShuttingDown)
		r.metrics.rejected("aborted")
		r.notify(job, out)
		return
	}

	start := time.Now()
	r.metrics.started()
	out := job.Attempt.Do(r.ctx)
	took := time.Since(start)
	kind := editor.Kind(out.Err)
	r.metrics.settled(kind, took)

	if out.OK() {
		logger.Info("edit completed", "dur", took.String())
	} else {
		logger.Warn("edit failed", "outcome", kind, "dur", took.String(), "err", out.Err)
	}
	r.notify(job, out)
}

func (r *EditRunner) notify(job EditJob, out editor.Outcome) {
	event := types.EditEvent{Type: eventCompleted, JobID: job.JobID}
	if !out.OK() {
		event.Type = eventFailed
		event.Message = out.Message()
	}
	r.hub.SendTo(job.SessionID, event)
}
