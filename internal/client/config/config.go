package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the devtv CLI.
//
// Fields:
//   - ServerURL: base URL of the devtv HTTP API.
//   - RequestTimeout: upper bound for a single API call.
//   - DataDir: directory holding the local session database.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DataDir        string
}

// userConfigDir is a seam for os.UserConfigDir.
var userConfigDir = os.UserConfigDir

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	if dir, err := userConfigDir(); err == nil {
		c.DataDir = filepath.Join(dir, "devtv")
	} else {
		c.DataDir = ".devtv"
	}
}

// DatabasePath is the sqlite file that stores the local session.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "devtv.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment and JSON (if present). Command flags are bound by the cli
// package on top of the result.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	return cfg
}
