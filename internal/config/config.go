// Package config holds the CLI configuration: where session files
// live, where the span cache goes, and the scan budgets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	DataDir   string `json:"data_dir"`
	CachePath string `json:"-"`

	// WatchDirs are the session directory roots the watch command
	// observes. Overridable from config.json or AGENTLENS_WATCH_DIRS
	// (colon-separated).
	WatchDirs []string `json:"watch_dirs,omitempty"`

	// MaxMatches caps spans per scanned file.
	MaxMatches int `json:"max_matches,omitempty"`

	// MaxDecodedBytes is the decode budget for extract.
	MaxDecodedBytes int64 `json:"max_decoded_bytes,omitempty"`

	WatchDebounce time.Duration `json:"-"`
}

// Default returns a Config with default values: the usual agent
// session roots under $HOME and a cache under ~/.agentlens.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".agentlens")
	return Config{
		DataDir:   dataDir,
		CachePath: filepath.Join(dataDir, "spans.db"),
		WatchDirs: []string{
			filepath.Join(home, ".claude", "projects"),
			filepath.Join(home, ".codex", "sessions"),
			filepath.Join(home, ".gemini", "tmp"),
			filepath.Join(home, ".factory", "sessions"),
			filepath.Join(home, ".local", "share", "opencode", "storage"),
		},
		MaxMatches:      1000,
		MaxDecodedBytes: 64 * 1024 * 1024,
		WatchDebounce:   500 * time.Millisecond,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env.
func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir override must apply before the file load, since it
	// decides where config.json lives.
	if v := os.Getenv("AGENTLENS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	cfg.CachePath = filepath.Join(cfg.DataDir, "spans.db")
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		WatchDirs       []string `json:"watch_dirs"`
		MaxMatches      int      `json:"max_matches"`
		MaxDecodedBytes int64    `json:"max_decoded_bytes"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if len(file.WatchDirs) > 0 {
		c.WatchDirs = file.WatchDirs
	}
	if file.MaxMatches > 0 {
		c.MaxMatches = file.MaxMatches
	}
	if file.MaxDecodedBytes > 0 {
		c.MaxDecodedBytes = file.MaxDecodedBytes
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("AGENTLENS_WATCH_DIRS"); v != "" {
		c.WatchDirs = filepath.SplitList(v)
	}
}
