package sync

import (
	"context"
	"sync"
)

// Syncer is what the Runner drives; *Orchestrator implements it
type Syncer interface {
	Sync(ctx context.Context, release, language string, obs Observer) (*Result, error)
	Refresh(ctx context.Context, release, language string, obs Observer) (*Result, error)
}

// Target is the (release, language) key of a sync
type Target struct {
	Release  string
	Language string
}

// Job is one sync running in the background
type Job struct {
	Target Target

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	progress Progress
	result   *Result
	err      error
}

// Done is closed after the last progress notification has been delivered
func (j *Job) Done() <-chan struct{} { return j.done }

// Progress returns the latest notification
func (j *Job) Progress() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Result returns the outcome; it is only meaningful once Done is closed
func (j *Job) Result() (*Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Wait blocks until the job finishes or ctx is done. It does not cancel the job.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel abandons the job
func (j *Job) Cancel() { j.cancel() }

// Runner keeps at most one sync in flight. Starting a different target
// cancels the running one; starting the same target joins it.
type Runner struct {
	syncer Syncer

	mu      sync.Mutex
	current *Job
}

// NewRunner creates a runner over syncer
func NewRunner(syncer Syncer) *Runner {
	return &Runner{syncer: syncer}
}

// Start begins a sync for t, or returns the in-flight job for the same target.
// obs is only attached to a newly started job.
func (r *Runner) Start(t Target, obs Observer) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.Target == t && !closed(r.current.done) {
		return r.current
	}
	return r.launch(t, obs, r.syncer.Sync)
}

// Refresh always starts a new sync for t that bypasses the cache
func (r *Runner) Refresh(t Target, obs Observer) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.launch(t, obs, r.syncer.Refresh)
}

// Current returns the most recently started job, if any
func (r *Runner) Current() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Stop cancels the in-flight job
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.cancel()
	}
}

type syncFunc func(ctx context.Context, release, language string, obs Observer) (*Result, error)

func (r *Runner) launch(t Target, obs Observer, run syncFunc) *Job {
	if r.current != nil {
		r.current.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{Target: t, cancel: cancel, done: make(chan struct{})}
	r.current = job

	go func() {
		defer cancel()
		res, err := run(ctx, t.Release, t.Language, ObserverFunc(func(p Progress) {
			job.mu.Lock()
			job.progress = p
			job.mu.Unlock()
			if obs != nil {
				obs.OnProgress(p)
			}
		}))
		job.mu.Lock()
		job.result, job.err = res, err
		job.mu.Unlock()
		close(job.done)
	}()
	return job
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
