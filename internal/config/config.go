package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	DanmakuDir string `toml:"danmaku_dir"`
	LogDir     string `toml:"log_dir"`
}

// Webhook contains configuration for the inbound webhook HTTP server.
type Webhook struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Emby contains configuration for the Emby server API used by the metadata
// fetcher. An empty URL disables the fetcher entirely; the pipeline then
// relies on webhook-embedded identifiers and title matching.
type Emby struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SearchEnqueued bool   `toml:"search_enqueued"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for danmusync.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Webhook       Webhook       `toml:"webhook"`
	Emby          Emby          `toml:"emby"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/danmusync/config.toml")
}

// Load locates, parses, and validates a configuration file. When path is
// empty the default location is used; a missing file yields defaults rather
// than an error. The returned string is the path that was consulted.
func Load(path string) (*Config, string, error) {
	usedPath := strings.TrimSpace(path)
	if usedPath == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		usedPath = defaultPath
	} else {
		expanded, err := expandPath(usedPath)
		if err != nil {
			return nil, "", err
		}
		usedPath = expanded
	}

	cfg := Default()
	data, err := os.ReadFile(usedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, usedPath, fmt.Errorf("parse config %s: %w", usedPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment fallbacks are enough to run.
	default:
		return nil, usedPath, fmt.Errorf("read config %s: %w", usedPath, err)
	}

	applyEnvOverrides(&cfg)
	if err := cfg.normalize(); err != nil {
		return nil, usedPath, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, usedPath, err
	}
	return &cfg, usedPath, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates every directory the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.DanmakuDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CatalogDBPath returns the SQLite path of the danmaku catalog.
func (c *Config) CatalogDBPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// QueueDBPath returns the SQLite path of the search task queue.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.DataDir, "tasks.db")
}

// LockFilePath returns the daemon instance lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "danmusync.lock")
}

func applyEnvOverrides(cfg *Config) {
	if url := strings.TrimSpace(os.Getenv("EMBY_SERVER_URL")); url != "" {
		cfg.Emby.URL = url
	}
	if key := strings.TrimSpace(os.Getenv("EMBY_API_KEY")); key != "" {
		cfg.Emby.APIKey = key
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.DanmakuDir, err = expandPath(c.Paths.DanmakuDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Emby.URL = strings.TrimRight(strings.TrimSpace(c.Emby.URL), "/")
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
	c.Webhook.Bind = strings.TrimSpace(c.Webhook.Bind)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
