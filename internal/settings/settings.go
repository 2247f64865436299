// Package settings loads and persists the user's preferences.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// FileName is the settings file created inside the config directory.
const FileName = "settings.json"

// TTLPresets are the cache durations offered to users, in seconds.
var TTLPresets = []int{1800, 3600, 7200, 14400}

// Settings holds user preferences.
type Settings struct {
	CacheTTL        int    `json:"cache_ttl"` // seconds
	DefaultLanguage string `json:"default_language"`
	DefaultRelease  string `json:"default_release"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		CacheTTL:        3600,
		DefaultLanguage: "sv",
		DefaultRelease:  "gnome-49",
	}
}

// TTL returns the cache TTL as a duration.
func (s Settings) TTL() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

// Store is the persistence collaborator for Settings.
type Store interface {
	Load() Settings
	Save(Settings) error
}

// SettingsError describes an unreadable or corrupt settings file. It is only logged.
type SettingsError struct {
	Path string
	Err  error
}

func (e *SettingsError) Error() string { return fmt.Sprintf("settings %s: %v", e.Path, e.Err) }

func (e *SettingsError) Unwrap() error { return e.Err }

// FileStore keeps settings in a JSON file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	Logger *slog.Logger
}

// NewFileStore returns a store writing to <dir>/settings.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName), Logger: slog.Default()}
}

// Path returns the settings file location.
func (s *FileStore) Path() string { return s.path }

// Load returns the stored settings merged over the defaults. A missing or
// corrupt file yields the defaults; unknown keys are ignored.
func (s *FileStore) Load() Settings {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.Logger.Warn("using default settings", "error", &SettingsError{Path: s.path, Err: err})
		}
		return Defaults()
	}
	out := Defaults()
	if err := json.Unmarshal(b, &out); err != nil {
		s.Logger.Warn("using default settings", "error", &SettingsError{Path: s.path, Err: err})
		return Defaults()
	}
	return out
}

// Save writes settings atomically.
func (s *FileStore) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-"+FileName+"-")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Update loads the settings, applies fn and persists the result immediately.
func Update(store Store, fn func(*Settings)) (Settings, error) {
	st := store.Load()
	fn(&st)
	if err := store.Save(st); err != nil {
		return st, err
	}
	return st, nil
}

// Set assigns a single setting by its file key.
func Set(st *Settings, key, value string) error {
	switch key {
	case "cache_ttl":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("cache_ttl must be a positive number of seconds, got %q", value)
		}
		st.CacheTTL = n
	case "default_language":
		if value == "" {
			return errors.New("default_language cannot be empty")
		}
		st.DefaultLanguage = value
	case "default_release":
		if value == "" {
			return errors.New("default_release cannot be empty")
		}
		st.DefaultRelease = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
