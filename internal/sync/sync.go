// Package sync turns a (release, language) request into a module statistics
// set, served from the cache when fresh and fetched from the service otherwise.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

// ErrCanceled is returned when the caller abandons a sync
var ErrCanceled = errors.New("sync canceled")

var errNoStatsPath = errors.New("module has no statistics resource")

// RemoteClient is the part of the statistics service the orchestrator uses
type RemoteClient interface {
	ListReleaseModules(ctx context.Context, release, language string) ([]models.ReleaseModule, error)
	FetchModuleStat(ctx context.Context, ref models.StatRef) (models.ModuleStat, error)
}

// Cache stores the last synced set
type Cache interface {
	Read(release, language string, maxAge time.Duration) ([]models.ModuleStat, bool)
	Write(release, language string, entries []models.ModuleStat) error
	Invalidate() error
}

// Journal records finished sync runs
type Journal interface {
	Record(ctx context.Context, run *models.SyncRun) error
}

// Progress is one (completed, total) notification of the detail fetch loop
type Progress struct {
	Done  int
	Total int
}

// Observer receives progress notifications in increasing Done order
type Observer interface {
	OnProgress(Progress)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// SyncError is the single error surfaced when the module list cannot be fetched
type SyncError struct {
	Release  string
	Language string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s/%s: %v", e.Release, e.Language, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Result is the outcome of a completed sync
type Result struct {
	RunID     string
	Release   string
	Language  string
	Entries   []models.ModuleStat
	Skipped   []models.SyncFailure
	FromCache bool
}

// SyncerConfig holds configuration for the orchestrator
type SyncerConfig struct {
	NumWorkers int
	Delay      time.Duration // pause between dispatched detail requests
	TTL        time.Duration
	Journal    Journal
	Logger     *slog.Logger
	Now        func() time.Time
}

// DefaultSyncerConfig returns default orchestrator configuration
func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{
		NumWorkers: 4,
		Delay:      100 * time.Millisecond,
		TTL:        time.Hour,
	}
}

// Orchestrator runs sync operations against a remote client and a cache
type Orchestrator struct {
	remote  RemoteClient
	cache   Cache
	journal Journal
	logger  *slog.Logger
	now     func() time.Time

	numWorkers int
	delay      time.Duration

	mu  sync.RWMutex
	ttl time.Duration
}

// NewOrchestrator creates an orchestrator. A nil config uses DefaultSyncerConfig.
func NewOrchestrator(remote RemoteClient, cache Cache, config *SyncerConfig) *Orchestrator {
	if config == nil {
		defaultConfig := DefaultSyncerConfig()
		config = &defaultConfig
	}
	o := &Orchestrator{
		remote:     remote,
		cache:      cache,
		journal:    config.Journal,
		logger:     config.Logger,
		now:        config.Now,
		numWorkers: config.NumWorkers,
		delay:      config.Delay,
		ttl:        config.TTL,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.numWorkers < 1 {
		o.numWorkers = 1
	}
	return o
}

// TTL returns the freshness window used for cache checks
func (o *Orchestrator) TTL() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ttl
}

// SetTTL changes the freshness window for subsequent syncs
func (o *Orchestrator) SetTTL(ttl time.Duration) {
	o.mu.Lock()
	o.ttl = ttl
	o.mu.Unlock()
}

// Refresh drops the cached record and syncs from the service
func (o *Orchestrator) Refresh(ctx context.Context, release, language string, obs Observer) (*Result, error) {
	if err := o.cache.Invalidate(); err != nil {
		o.logger.Warn("failed to clear cache", "error", err)
	}
	return o.Sync(ctx, release, language, obs)
}

// Sync returns the statistics for release and language. Per-module fetch
// failures are skipped and reported in Result.Skipped; the possibly partial
// set is cached. A canceled sync writes nothing and returns ErrCanceled.
func (o *Orchestrator) Sync(ctx context.Context, release, language string, obs Observer) (*Result, error) {
	run := &models.SyncRun{
		ID:        uuid.NewString(),
		Release:   release,
		Language:  language,
		StartedAt: o.now(),
	}
	res := &Result{RunID: run.ID, Release: release, Language: language}

	if entries, ok := o.cache.Read(release, language, o.TTL()); ok {
		run.Source = models.SourceCache
		run.Status = models.RunDone
		run.Total = len(entries)
		run.Fetched = len(entries)
		o.finish(ctx, run)
		res.Entries = entries
		res.FromCache = true
		return res, nil
	}

	run.Source = models.SourceRemote
	mods, err := o.remote.ListReleaseModules(ctx, release, language)
	if err != nil {
		if ctx.Err() != nil {
			return nil, o.canceled(ctx, run)
		}
		run.Status = models.RunFailed
		run.Error = err.Error()
		o.finish(ctx, run)
		return nil, &SyncError{Release: release, Language: language, Err: err}
	}
	run.Total = len(mods)

	entries, failures := o.fetchDetails(ctx, language, mods, obs)
	if ctx.Err() != nil {
		return nil, o.canceled(ctx, run)
	}

	if err := o.cache.Write(release, language, entries); err != nil {
		o.logger.Warn("failed to write cache", "release", release, "language", language, "error", err)
	}

	run.Status = models.RunDone
	run.Fetched = len(entries)
	run.Skipped = len(failures)
	run.Failures = failures
	o.finish(ctx, run)

	res.Entries = entries
	res.Skipped = failures
	return res, nil
}

type outcome struct {
	idx  int
	stat models.ModuleStat
	err  error
}

// fetchDetails fetches every listed module on a bounded worker pool and
// returns the successes in list order.
func (o *Orchestrator) fetchDetails(ctx context.Context, language string, mods []models.ReleaseModule, obs Observer) ([]models.ModuleStat, []models.SyncFailure) {
	jobs := make(chan int)
	results := make(chan outcome, o.numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < o.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				m := mods[idx]
				if m.Stats == "" {
					results <- outcome{idx: idx, err: errNoStatsPath}
					continue
				}
				stat, err := o.remote.FetchModuleStat(ctx, models.StatRef{
					Path:     m.Stats,
					Module:   m.Module,
					Branch:   m.Branch,
					Language: language,
				})
				results <- outcome{idx: idx, stat: stat, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for idx := range mods {
			if idx > 0 && o.delay > 0 {
				t := time.NewTimer(o.delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	stats := make([]*models.ModuleStat, len(mods))
	errs := make([]error, len(mods))
	done := 0
	for r := range results {
		done++
		if r.err != nil {
			errs[r.idx] = r.err
			if ctx.Err() == nil {
				o.logger.Warn("skipping module", "module", mods[r.idx].Module, "branch", mods[r.idx].Branch, "error", r.err)
			}
		} else {
			stat := r.stat
			stats[r.idx] = &stat
		}
		if obs != nil && ctx.Err() == nil {
			obs.OnProgress(Progress{Done: done, Total: len(mods)})
		}
	}

	entries := make([]models.ModuleStat, 0, len(mods))
	var failures []models.SyncFailure
	for i, s := range stats {
		if s != nil {
			entries = append(entries, *s)
			continue
		}
		if errs[i] != nil {
			failures = append(failures, models.SyncFailure{
				Module: mods[i].Module,
				Branch: mods[i].Branch,
				Error:  errs[i].Error(),
			})
		}
	}
	return entries, failures
}

func (o *Orchestrator) canceled(ctx context.Context, run *models.SyncRun) error {
	run.Status = models.RunCanceled
	run.Error = ctx.Err().Error()
	o.finish(ctx, run)
	return fmt.Errorf("%w: %s/%s", ErrCanceled, run.Release, run.Language)
}

func (o *Orchestrator) finish(ctx context.Context, run *models.SyncRun) {
	run.FinishedAt = o.now()
	o.logger.Info("sync finished",
		"release", run.Release,
		"language", run.Language,
		"source", run.Source,
		"status", run.Status,
		"fetched", run.Fetched,
		"skipped", run.Skipped,
		"duration", run.Duration().Round(time.Millisecond),
	)
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("failed to record sync run", "id", run.ID, "error", err)
	}
}
