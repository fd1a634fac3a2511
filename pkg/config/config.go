package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the shared configuration for both binaries. Values come from
// defaults, then an optional YAML file, then SCHOLARMAP_* environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	OpenAlex OpenAlexConfig `yaml:"openalex"`
	Map      MapConfig      `yaml:"map"`
	Auth     AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" (cgo) or "sqlite" (pure Go)
	Path   string `yaml:"path"`
	Table  string `yaml:"table"` // locations table name
}

type OpenAlexConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Mailto      string        `yaml:"mailto"`
	PerPage     int           `yaml:"per_page"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type MapConfig struct {
	Addr          string        `yaml:"addr"`
	SiteTitle     string        `yaml:"site_title"`
	ContactEmail  string        `yaml:"contact_email"`
	DefaultLat    float64       `yaml:"default_lat"`
	DefaultLng    float64       `yaml:"default_lng"`
	Zoom          int           `yaml:"zoom"`
	TrustedProxy  string        `yaml:"trusted_proxy"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	FeedAddr      string        `yaml:"feed_addr"` // TCP change feed; empty disables it
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTIssuer         string        `yaml:"jwt_issuer"`
	JWTDuration       time.Duration `yaml:"jwt_duration"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
}

// Default returns the built-in configuration. The database lives in
// ~/.scholarmap/data.db unless overridden.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(home, ".scholarmap", "data.db"),
			Table:  "city_locations",
		},
		OpenAlex: OpenAlexConfig{
			BaseURL:     "https://api.openalex.org",
			PerPage:     50,
			Timeout:     15 * time.Second,
			Concurrency: 4,
			CacheTTL:    24 * time.Hour,
		},
		Map: MapConfig{
			Addr:          ":8080",
			SiteTitle:     "Favorites",
			DefaultLat:    38.9072,
			DefaultLng:    -77.0369,
			Zoom:          12,
			TrustedProxy:  "127.0.0.1",
			ShutdownGrace: 10 * time.Second,
		},
		Auth: AuthConfig{
			// dev default (change for any shared deployment)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "scholarmap",
			JWTDuration: 24 * time.Hour,
		},
	}
}

// Load builds the configuration. An empty path or a missing file means
// defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCHOLARMAP_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SCHOLARMAP_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SCHOLARMAP_DB_TABLE"); v != "" {
		c.Database.Table = v
	}
	if v := os.Getenv("SCHOLARMAP_MAILTO"); v != "" {
		c.OpenAlex.Mailto = v
	}
	if v := os.Getenv("SCHOLARMAP_ADDR"); v != "" {
		c.Map.Addr = v
	}
	if v := os.Getenv("SCHOLARMAP_FEED_ADDR"); v != "" {
		c.Map.FeedAddr = v
	}
	if v := os.Getenv("SCHOLARMAP_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SCHOLARMAP_ADMIN_PASSWORD_HASH"); v != "" {
		c.Auth.AdminPasswordHash = v
	}
	// hours; unparsable values keep the current duration
	if v := os.Getenv("SCHOLARMAP_JWT_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			c.Auth.JWTDuration = time.Duration(h) * time.Hour
		}
	}
}

// Validate rejects values the binaries cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return errors.New("database path is empty")
	}
	if !validTableName(c.Database.Table) {
		return fmt.Errorf("invalid table name %q", c.Database.Table)
	}
	if c.OpenAlex.PerPage < 1 || c.OpenAlex.PerPage > 200 {
		return fmt.Errorf("openalex per_page must be 1-200, got %d", c.OpenAlex.PerPage)
	}
	if c.OpenAlex.Concurrency < 1 {
		return fmt.Errorf("openalex concurrency must be positive, got %d", c.OpenAlex.Concurrency)
	}
	return nil
}

// table names are interpolated into SQL, so only [A-Za-z0-9_] is allowed
func validTableName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
