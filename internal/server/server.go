// Package server exposes the statistics through a small local JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/chmdznr/gnome-l10n-sync/internal/cache"
	"github.com/chmdznr/gnome-l10n-sync/internal/remote"
	"github.com/chmdznr/gnome-l10n-sync/internal/settings"
	"github.com/chmdznr/gnome-l10n-sync/internal/sync"
	"github.com/chmdznr/gnome-l10n-sync/internal/view"
	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
	"github.com/chmdznr/gnome-l10n-sync/pkg/version"
)

// ReleaseLister lists the releases known to the service
type ReleaseLister interface {
	ListReleases(ctx context.Context) ([]models.Release, error)
}

// CacheAdmin inspects and clears the stats cache
type CacheAdmin interface {
	Info() (*cache.Info, error)
	Invalidate() error
}

// RunLister reads the sync journal
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// Deps are the collaborators behind the routes
type Deps struct {
	Releases ReleaseLister
	Runner   *sync.Runner
	Cache    CacheAdmin
	Settings settings.Store
	Runs     RunLister // optional
	SiteBase string
	Logger   *slog.Logger

	// OnSettings is called after settings were saved
	OnSettings func(settings.Settings)
}

// Server wraps the fiber app
type Server struct {
	app *fiber.App
	d   Deps
}

// New builds the app and registers every route
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:      "gnome-l10n",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a cold sync of a large release is slow
	})
	app.Use(recover.New())

	s := &Server{app: app, d: d}
	s.Register(app)
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until the app is shut down
func (s *Server) Listen(addr string) error {
	s.d.Logger.Info("api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener and cancels any in-flight sync
func (s *Server) Shutdown() error {
	s.d.Runner.Stop()
	return s.app.Shutdown()
}

// Register sets up the API routes on r
func (s *Server) Register(r fiber.Router) {
	api := r.Group("/api/v1")
	api.Get("/health", s.Health)
	api.Get("/releases", s.Releases)
	api.Get("/stats", s.Stats)
	api.Get("/cache", s.CacheInfo)
	api.Delete("/cache", s.ClearCache)
	api.Get("/settings", s.GetSettings)
	api.Put("/settings", s.PutSettings)
	api.Get("/runs", s.Runs)
}

func (s *Server) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": version.Version,
	})
}

// Releases returns the gnome-* releases, newest first
func (s *Server) Releases(c fiber.Ctx) error {
	all, err := s.d.Releases.ListReleases(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	releases := remote.FilterReleases(all, "gnome-")
	return c.JSON(fiber.Map{"releases": releases, "count": len(releases)})
}

type entry struct {
	models.ModuleStat
	Total       int     `json:"total"`
	Pct         float64 `json:"pct"`
	Complete    bool    `json:"complete"`
	VertimusURL string  `json:"vertimus_url"`
}

// Stats syncs (or serves from cache) and returns the filtered, sorted view
func (s *Server) Stats(c fiber.Ctx) error {
	st := s.d.Settings.Load()
	release := c.Query("release", st.DefaultRelease)
	language := c.Query("language", st.DefaultLanguage)

	filter, err := view.ParseFilter(c.Query("filter"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sortKey, err := view.ParseSort(c.Query("sort"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	target := sync.Target{Release: release, Language: language}
	var job *sync.Job
	if c.Query("refresh") == "true" {
		job = s.d.Runner.Refresh(target, nil)
	} else {
		job = s.d.Runner.Start(target, nil)
	}
	res, err := job.Wait(c.Context())
	switch {
	case errors.Is(err, sync.ErrCanceled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "superseded by a sync for another release or language"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	v := view.Compute(res.Entries, view.Query{Filter: filter, Text: c.Query("q"), Sort: sortKey})
	entries := make([]entry, len(v.Entries))
	for i, m := range v.Entries {
		entries[i] = entry{
			ModuleStat:  m,
			Total:       m.Total(),
			Pct:         m.Pct(),
			Complete:    m.Complete(),
			VertimusURL: m.VertimusURL(s.d.SiteBase),
		}
	}
	skipped := res.Skipped
	if skipped == nil {
		skipped = []models.SyncFailure{}
	}
	return c.JSON(fiber.Map{
		"release":    release,
		"language":   language,
		"run_id":     res.RunID,
		"from_cache": res.FromCache,
		"skipped":    skipped,
		"summary":    v.Summary,
		"entries":    entries,
	})
}

func (s *Server) CacheInfo(c fiber.Ctx) error {
	info, err := s.d.Cache.Info()
	if err != nil {
		// corrupt cache reads as empty
		s.d.Logger.Warn("cache unreadable", "error", err)
	}
	if info == nil {
		return c.JSON(fiber.Map{"empty": true})
	}
	return c.JSON(fiber.Map{
		"empty":       false,
		"release":     info.Release,
		"language":    info.Language,
		"written":     info.Written,
		"age_seconds": int(info.Age.Seconds()),
		"entries":     info.Entries,
	})
}

func (s *Server) ClearCache(c fiber.Ctx) error {
	if err := s.d.Cache.Invalidate(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) GetSettings(c fiber.Ctx) error {
	return c.JSON(s.d.Settings.Load())
}

// PutSettings applies the fields present in the body and saves immediately
func (s *Server) PutSettings(c fiber.Ctx) error {
	var body struct {
		CacheTTL        *int    `json:"cache_ttl"`
		DefaultLanguage *string `json:"default_language"`
		DefaultRelease  *string `json:"default_release"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.CacheTTL != nil && *body.CacheTTL <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cache_ttl must be positive"})
	}
	if (body.DefaultLanguage != nil && *body.DefaultLanguage == "") || (body.DefaultRelease != nil && *body.DefaultRelease == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "defaults cannot be empty"})
	}

	st, err := settings.Update(s.d.Settings, func(st *settings.Settings) {
		if body.CacheTTL != nil {
			st.CacheTTL = *body.CacheTTL
		}
		if body.DefaultLanguage != nil {
			st.DefaultLanguage = *body.DefaultLanguage
		}
		if body.DefaultRelease != nil {
			st.DefaultRelease = *body.DefaultRelease
		}
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if s.d.OnSettings != nil {
		s.d.OnSettings(st)
	}
	return c.JSON(st)
}

func (s *Server) Runs(c fiber.Ctx) error {
	if s.d.Runs == nil {
		return c.JSON(fiber.Map{"runs": []models.SyncRun{}, "count": 0})
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
	}
	runs, err := s.d.Runs.ListRuns(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return c.JSON(fiber.Map{"runs": runs, "count": len(runs)})
}
