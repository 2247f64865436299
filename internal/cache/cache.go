// Package cache persists the most recent statistics snapshot in a single JSON
// file. The file holds one (release, language) record at a time; a write
// replaces it atomically and every read failure degrades to a miss.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

// FileName is the cache file created inside the cache directory.
const FileName = "stats_cache.json"

// Record is the on-disk snapshot.
type Record struct {
	Release   string              `json:"release"`
	Language  string              `json:"language"`
	Timestamp float64             `json:"timestamp"` // seconds since epoch
	Stats     []models.ModuleStat `json:"stats"`
}

// Info describes the current record without its entries.
type Info struct {
	Release  string
	Language string
	Written  time.Time
	Age      time.Duration
	Entries  int
}

// CacheError describes an unreadable or corrupt cache file. It is only logged.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache %s: %v", e.Path, e.Err) }

func (e *CacheError) Unwrap() error { return e.Err }

// Store is a single-slot cache backed by one file.
type Store struct {
	path string
	mu   sync.Mutex // serializes writes and removal

	// Now is the clock used for timestamps and freshness checks.
	Now    func() time.Time
	Logger *slog.Logger
}

// New returns a store writing to <dir>/stats_cache.json.
func New(dir string) *Store {
	return &Store{
		path:   filepath.Join(dir, FileName),
		Now:    time.Now,
		Logger: slog.Default(),
	}
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

// Read returns the cached entries when a record exists for exactly this
// release and language and is at most maxAge old.
func (s *Store) Read(release, language string, maxAge time.Duration) ([]models.ModuleStat, bool) {
	rec, err := s.load()
	if err != nil {
		s.Logger.Warn("ignoring unreadable stats cache", "error", err)
		return nil, false
	}
	if rec == nil || rec.Release != release || rec.Language != language {
		return nil, false
	}
	if age := epochSeconds(s.Now()) - rec.Timestamp; age > maxAge.Seconds() {
		return nil, false
	}
	return rec.Stats, true
}

// Write replaces the cache with entries for release and language.
func (s *Store) Write(release, language string, entries []models.ModuleStat) error {
	if entries == nil {
		entries = []models.ModuleStat{}
	}
	rec := Record{
		Release:   release,
		Language:  language,
		Timestamp: epochSeconds(s.Now()),
		Stats:     entries,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, &rec); err != nil {
		return fmt.Errorf("write stats cache: %w", err)
	}
	return nil
}

// Invalidate deletes the record. Safe to call when nothing is cached.
func (s *Store) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stats cache: %w", err)
	}
	return nil
}

// Info reports on the current record. It returns (nil, nil) when the cache
// is empty and a *CacheError when the file cannot be decoded.
func (s *Store) Info() (*Info, error) {
	rec, err := s.load()
	if err != nil || rec == nil {
		return nil, err
	}
	written := fromEpochSeconds(rec.Timestamp)
	return &Info{
		Release:  rec.Release,
		Language: rec.Language,
		Written:  written,
		Age:      s.Now().Sub(written),
		Entries:  len(rec.Stats),
	}, nil
}

// load reads and validates the record; a missing file yields (nil, nil).
func (s *Store) load() (*Record, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &CacheError{Path: s.path, Err: err}
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, &CacheError{Path: s.path, Err: err}
	}
	for _, st := range rec.Stats {
		if !st.Valid() {
			return nil, &CacheError{Path: s.path, Err: fmt.Errorf("negative counts for module %q", st.Module)}
		}
	}
	return &rec, nil
}

// writeAtomic encodes v into a temp file beside path, then renames it over
// path so readers never observe a partial record.
func writeAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second)))
}
