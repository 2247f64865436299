package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chmdznr/gnome-l10n-sync/pkg/version"
)

// AppDirName is the per-user directory name under the XDG cache and config roots.
const AppDirName = "gnome-l10n"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Remote service
	APIBase      string
	SiteBase     string
	UserAgent    string
	HTTPTimeout  time.Duration
	Workers      int
	RequestDelay time.Duration

	// Local storage
	CacheDir    string
	ConfigDir   string
	JournalPath string

	// Object storage for published reports
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	// HTTP API
	Port string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	cacheDir := envOrDefault("L10N_CACHE_DIR", xdgDir("XDG_CACHE_HOME", ".cache"))
	return &Config{
		APIBase:      envOrDefault("L10N_API_BASE", "https://l10n.gnome.org/api/v1"),
		SiteBase:     envOrDefault("L10N_SITE_BASE", "https://l10n.gnome.org"),
		UserAgent:    envOrDefault("L10N_USER_AGENT", version.UserAgent()),
		HTTPTimeout:  time.Duration(envOrDefaultInt("L10N_HTTP_TIMEOUT", 15)) * time.Second,
		Workers:      envOrDefaultInt("L10N_WORKERS", 4),
		RequestDelay: time.Duration(envOrDefaultInt("L10N_REQUEST_DELAY_MS", 100)) * time.Millisecond,

		CacheDir:    cacheDir,
		ConfigDir:   envOrDefault("L10N_CONFIG_DIR", xdgDir("XDG_CONFIG_HOME", ".config")),
		JournalPath: envOrDefault("L10N_JOURNAL", filepath.Join(cacheDir, "journal.db")),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envOrDefault("MINIO_BUCKET", "l10n-reports"),
		MinioSecure:    envOrDefaultBool("MINIO_SECURE", true),

		Port: envOrDefault("PORT", "8080"),
	}
}

// xdgDir resolves <$env or ~/fallback>/gnome-l10n.
func xdgDir(env, fallback string) string {
	root := os.Getenv(env)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		root = filepath.Join(home, fallback)
	}
	return filepath.Join(root, AppDirName)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
