package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/chmdznr/gnome-l10n-sync/internal/browse"
	"github.com/chmdznr/gnome-l10n-sync/internal/cache"
	"github.com/chmdznr/gnome-l10n-sync/internal/db"
	"github.com/chmdznr/gnome-l10n-sync/internal/export"
	"github.com/chmdznr/gnome-l10n-sync/internal/publish"
	"github.com/chmdznr/gnome-l10n-sync/internal/remote"
	"github.com/chmdznr/gnome-l10n-sync/internal/server"
	"github.com/chmdznr/gnome-l10n-sync/internal/settings"
	"github.com/chmdznr/gnome-l10n-sync/internal/sync"
	"github.com/chmdznr/gnome-l10n-sync/internal/view"
	"github.com/chmdznr/gnome-l10n-sync/pkg/config"
	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
	"github.com/chmdznr/gnome-l10n-sync/pkg/utils"
	"github.com/chmdznr/gnome-l10n-sync/pkg/version"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	viewFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "filter",
			Usage: "Filter: all, incomplete, complete, fuzzy, state_translated",
			Value: string(view.FilterAll),
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort: pct_asc, pct_desc, name_asc, name_desc, untrans_desc, fuzzy_desc, total_desc, state",
			Value: string(view.SortPctAsc),
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Only modules whose name contains this text",
		},
	}

	app := &cli.App{
		Name:                 "l10nsync",
		Usage:                "GNOME translation statistics for one release and language",
		Version:              version.Version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "release",
				Aliases: []string{"r"},
				Usage:   "Release to show (default from settings)",
			},
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language code (default from settings)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log at debug level",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:   "releases",
				Usage:  "List GNOME releases, newest first",
				Action: listReleases,
			},
			{
				Name:   "languages",
				Usage:  "List common language codes",
				Action: listLanguages,
			},
			{
				Name:    "stats",
				Aliases: []string{"sync"},
				Usage:   "Sync and show statistics",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore the cache and fetch everything again",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most this many modules (0 = all)",
					},
				}, viewFlags...),
				Action: showStats,
			},
			{
				Name:  "cache",
				Usage: "Inspect or clear the statistics cache",
				Subcommands: []*cli.Command{
					{
						Name:   "info",
						Usage:  "Show what the cache holds",
						Action: cacheInfo,
					},
					{
						Name:   "clear",
						Usage:  "Delete the cached record",
						Action: cacheClear,
					},
				},
			},
			{
				Name:  "settings",
				Usage: "Show or change settings",
				Subcommands: []*cli.Command{
					{
						Name:   "get",
						Usage:  "Print the current settings",
						Action: settingsGet,
					},
					{
						Name:      "set",
						Usage:     "Change one setting (cache_ttl, default_language, default_release)",
						ArgsUsage: "<key> <value>",
						Action:    settingsSet,
					},
				},
			},
			{
				Name:  "export",
				Usage: "Write a CSV or XLSX report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format: csv or xlsx",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default gnome-l10n-<release>-<language>.<format>)",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Row order",
						Value: string(view.SortPctAsc),
					},
				},
				Action: exportReport,
			},
			{
				Name:  "publish",
				Usage: "Export a report and upload it to S3-compatible storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format: csv or xlsx",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Row order",
						Value: string(view.SortPctAsc),
					},
					&cli.StringFlag{
						Name:  "bucket",
						Usage: "Destination bucket (default MINIO_BUCKET)",
					},
				},
				Action: publishReport,
			},
			{
				Name:  "runs",
				Usage: "Show recent sync runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Show one run with its skipped modules",
					},
				},
				Action: showRuns,
			},
			{
				Name:  "serve",
				Usage: "Serve the statistics as a local JSON API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "Listen port (default PORT or 8080)",
					},
				},
				Action: serve,
			},
			{
				Name:  "browse",
				Usage: "Browse statistics interactively",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "rows",
						Usage: "Modules per page",
						Value: 20,
					},
				},
				Action: browseStats,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// env bundles everything a command needs
type env struct {
	cfg      *config.Config
	settings *settings.FileStore
	cache    *cache.Store
	remote   *remote.Client
	journal  *db.DB
	orch     *sync.Orchestrator
	target   sync.Target
}

// setup loads configuration and settings and wires the core. The journal
// is optional: when it cannot be opened runs are simply not recorded.
func setup(c *cli.Context) (*env, error) {
	cfg := config.Load()
	e := &env{
		cfg:      cfg,
		settings: settings.NewFileStore(cfg.ConfigDir),
		cache:    cache.New(cfg.CacheDir),
		remote: remote.New(remote.Options{
			APIBase:   cfg.APIBase,
			SiteBase:  cfg.SiteBase,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.HTTPTimeout,
		}),
	}
	st := e.settings.Load()

	syncerConfig := sync.SyncerConfig{
		NumWorkers: cfg.Workers,
		Delay:      cfg.RequestDelay,
		TTL:        st.TTL(),
	}
	journal, err := db.New(cfg.JournalPath)
	if err != nil {
		slog.Warn("sync journal disabled", "path", cfg.JournalPath, "error", err)
	} else {
		e.journal = journal
		syncerConfig.Journal = journal
	}
	e.orch = sync.NewOrchestrator(e.remote, e.cache, &syncerConfig)

	e.target = sync.Target{Release: st.DefaultRelease, Language: st.DefaultLanguage}
	if r := c.String("release"); r != "" {
		e.target.Release = r
	}
	if l := c.String("language"); l != "" {
		e.target.Language = l
	}
	if e.target.Release == "" || e.target.Language == "" {
		e.Close()
		return nil, fmt.Errorf("release and language are required")
	}
	return e, nil
}

func (e *env) Close() {
	if e.journal != nil {
		e.journal.Close()
	}
}

// signalContext is canceled on Ctrl+C so an abandoned sync writes nothing
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func listReleases(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()
	all, err := e.remote.ListReleases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list releases: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range remote.FilterReleases(all, "gnome-") {
		fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Description)
	}
	return w.Flush()
}

func listLanguages(c *cli.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, l := range models.CommonLanguages {
		fmt.Fprintf(w, "%s\t%s\n", l.Code, l.Name)
	}
	return w.Flush()
}

// progressBar renders sync progress with pb; it starts on the first notification
type progressBar struct {
	bar *pb.ProgressBar
}

func (p *progressBar) OnProgress(pr sync.Progress) {
	if p.bar == nil {
		p.bar = pb.New(pr.Total)
		p.bar.SetTemplate(`Fetching {{counters . }} {{bar . }} {{percent . }} {{etime . }}`)
		p.bar.SetWriter(os.Stderr)
		p.bar.Start()
	}
	p.bar.SetCurrent(int64(pr.Done))
}

func (p *progressBar) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

// runSync syncs the env's target with a progress bar on stderr
func runSync(ctx context.Context, e *env, refresh bool) (*sync.Result, error) {
	bar := &progressBar{}
	defer bar.finish()

	start := time.Now()
	var res *sync.Result
	var err error
	if refresh {
		res, err = e.orch.Refresh(ctx, e.target.Release, e.target.Language, bar)
	} else {
		res, err = e.orch.Sync(ctx, e.target.Release, e.target.Language, bar)
	}
	if err != nil {
		if errors.Is(err, sync.ErrCanceled) {
			return nil, fmt.Errorf("sync of %s/%s interrupted; nothing was cached", e.target.Release, e.target.Language)
		}
		return nil, err
	}
	elapsed := time.Since(start)
	bar.finish()
	bar.bar = nil

	switch {
	case res.FromCache:
		fmt.Fprintf(os.Stderr, "Loaded %d modules from cache\n", len(res.Entries))
	default:
		fmt.Fprintf(os.Stderr, "Fetched %d modules in %s", len(res.Entries), utils.FormatDuration(elapsed))
		if n := len(res.Skipped); n > 0 {
			fmt.Fprintf(os.Stderr, " (%d skipped; they stay missing until the cache is refreshed)", n)
		}
		fmt.Fprintln(os.Stderr)
	}
	return res, nil
}

func parseQuery(c *cli.Context) (view.Query, error) {
	filter, err := view.ParseFilter(c.String("filter"))
	if err != nil {
		return view.Query{}, err
	}
	sortKey, err := view.ParseSort(c.String("sort"))
	if err != nil {
		return view.Query{}, err
	}
	return view.Query{Filter: filter, Text: c.String("query"), Sort: sortKey}, nil
}

func showStats(c *cli.Context) error {
	q, err := parseQuery(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()
	res, err := runSync(ctx, e, c.Bool("refresh"))
	if err != nil {
		return err
	}

	v := view.Compute(res.Entries, q)
	entries := v.Entries
	if limit := c.Int("limit"); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	fmt.Printf("%s / %s (%s)\n\n", e.target.Release, e.target.Language, models.LanguageName(e.target.Language))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tBRANCH\tDOMAIN\tSTATE\tDONE\tTRANSLATED\tFUZZY\tUNTRANSLATED")
	for _, m := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			m.Module, m.Branch, m.Domain, m.State, utils.FormatPercent(m.Pct()), m.Translated, m.Fuzzy, m.Untranslated)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(view.CountsLine(v.Summary))
	fmt.Println(view.PercentLine(v.Summary))
	fmt.Printf("Showing %d of %d modules\n", len(entries), v.Summary.ModuleCount)
	return nil
}

func cacheInfo(c *cli.Context) error {
	cfg := config.Load()
	store := cache.New(cfg.CacheDir)
	info, err := store.Info()
	if err != nil {
		fmt.Printf("Cache file %s is unreadable and will be ignored: %v\n", store.Path(), err)
		return nil
	}
	if info == nil {
		fmt.Printf("Cache is empty (%s)\n", store.Path())
		return nil
	}
	fmt.Printf("File:     %s\n", store.Path())
	fmt.Printf("Key:      %s / %s\n", info.Release, info.Language)
	fmt.Printf("Entries:  %d\n", info.Entries)
	fmt.Printf("Written:  %s (%s ago)\n", info.Written.Local().Format(time.DateTime), utils.FormatDuration(info.Age))
	return nil
}

func cacheClear(c *cli.Context) error {
	store := cache.New(config.Load().CacheDir)
	if err := store.Invalidate(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared")
	return nil
}

func settingsGet(c *cli.Context) error {
	store := settings.NewFileStore(config.Load().ConfigDir)
	st := store.Load()
	fmt.Printf("File:              %s\n", store.Path())
	fmt.Printf("cache_ttl:         %d (%s)\n", st.CacheTTL, utils.FormatDuration(st.TTL()))
	fmt.Printf("default_language:  %s\n", st.DefaultLanguage)
	fmt.Printf("default_release:   %s\n", st.DefaultRelease)

	presets := make([]string, len(settings.TTLPresets))
	for i, p := range settings.TTLPresets {
		presets[i] = fmt.Sprint(p)
	}
	fmt.Printf("TTL presets:       %s\n", strings.Join(presets, ", "))
	return nil
}

func settingsSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: settings set <key> <value>")
	}
	store := settings.NewFileStore(config.Load().ConfigDir)
	st := store.Load()
	if err := settings.Set(&st, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	if err := store.Save(st); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Printf("%s = %s\n", c.Args().Get(0), c.Args().Get(1))
	return nil
}

// buildReport syncs and renders the full set in the requested format
func buildReport(c *cli.Context, e *env) (export.Exporter, []byte, error) {
	exporter, ok := export.Default().Get(c.String("format"))
	if !ok {
		return nil, nil, fmt.Errorf("unknown format %q (want one of %s)", c.String("format"), strings.Join(export.Default().Formats(), ", "))
	}
	sortKey, err := view.ParseSort(c.String("sort"))
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := runSync(ctx, e, false)
	if err != nil {
		return nil, nil, err
	}
	v := view.Compute(res.Entries, view.Query{Filter: view.FilterAll, Sort: sortKey})
	data, err := exporter.Export(export.Report{
		Release:  e.target.Release,
		Language: e.target.Language,
		SiteBase: e.cfg.SiteBase,
		Entries:  v.Entries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render %s: %w", exporter.Format(), err)
	}
	return exporter, data, nil
}

func exportReport(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	exporter, data, err := buildReport(c, e)
	if err != nil {
		return err
	}
	out := c.String("output")
	if out == "" {
		out = export.DefaultFileName(e.target.Release, e.target.Language, exporter.Format())
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Exported to %s (%s)\n", out, utils.FormatSize(int64(len(data))))
	return nil
}

func publishReport(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	bucket := c.String("bucket")
	if bucket == "" {
		bucket = e.cfg.MinioBucket
	}
	pub, err := publish.New(publish.Options{
		Endpoint:  e.cfg.MinioEndpoint,
		AccessKey: e.cfg.MinioAccessKey,
		SecretKey: e.cfg.MinioSecretKey,
		Bucket:    bucket,
		Secure:    e.cfg.MinioSecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up publishing (set MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY): %w", err)
	}

	exporter, data, err := buildReport(c, e)
	if err != nil {
		return err
	}
	name := export.DefaultFileName(e.target.Release, e.target.Language, exporter.Format())

	ctx, cancel := signalContext()
	defer cancel()
	object, err := pub.Publish(ctx, e.target.Release, e.target.Language, name, exporter.ContentType(), data)
	if err != nil {
		return err
	}
	fmt.Printf("Published %s (%s)\n", object, utils.FormatSize(int64(len(data))))
	return nil
}

func showRuns(c *cli.Context) error {
	cfg := config.Load()
	journal, err := db.New(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()
	ctx := context.Background()

	if id := c.String("id"); id != "" {
		run, err := journal.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", id)
		}
		fmt.Printf("Run:      %s\n", run.ID)
		fmt.Printf("Target:   %s / %s\n", run.Release, run.Language)
		fmt.Printf("Source:   %s\n", run.Source)
		fmt.Printf("Status:   %s\n", run.Status)
		fmt.Printf("Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
		fmt.Printf("Duration: %s\n", utils.FormatDuration(run.Duration()))
		fmt.Printf("Modules:  %d listed, %d fetched, %d skipped\n", run.Total, run.Fetched, run.Skipped)
		if run.Error != "" {
			fmt.Printf("Error:    %s\n", run.Error)
		}
		for _, f := range run.Failures {
			fmt.Printf("  - %s (%s): %s\n", f.Module, f.Branch, f.Error)
		}
		return nil
	}

	runs, err := journal.ListRuns(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tTARGET\tSOURCE\tSTATUS\tFETCHED\tSKIPPED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Release, r.Language,
			r.Source, r.Status, r.Fetched, r.Skipped, utils.FormatDuration(r.Duration()))
	}
	return w.Flush()
}

func serve(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	deps := server.Deps{
		Releases: e.remote,
		Runner:   sync.NewRunner(e.orch),
		Cache:    e.cache,
		Settings: e.settings,
		SiteBase: e.cfg.SiteBase,
		OnSettings: func(st settings.Settings) {
			e.orch.SetTTL(st.TTL())
		},
	}
	if e.journal != nil {
		deps.Runs = e.journal
	}
	srv := server.New(deps)

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	port := c.String("port")
	if port == "" {
		port = e.cfg.Port
	}
	return srv.Listen(":" + port)
}

func browseStats(c *cli.Context) error {
	// stderr lines garble the raw-mode screen; only log real problems
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()
	b := browse.New(sync.NewRunner(e.orch), e.target, os.Stdout, c.Int("rows"))
	return b.Run(ctx)
}
