package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	old := userConfigDir
	t.Cleanup(func() { userConfigDir = old })
	userConfigDir = func() (string, error) { return "/home/u/.config", nil }

	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, filepath.Join("/home/u/.config", "devtv"), c.DataDir)
	assert.Equal(t, filepath.Join("/home/u/.config", "devtv", "devtv.db"), c.DatabasePath())
}

func TestLoadDefaults_NoUserConfigDir(t *testing.T) {
	old := userConfigDir
	t.Cleanup(func() { userConfigDir = old })
	userConfigDir = func() (string, error) { return "", errors.New("no home") }

	var c Config
	c.LoadDefaults()

	assert.Equal(t, ".devtv", c.DataDir)
}

func TestParseEnv(t *testing.T) {
	oldEnv := envFile
	t.Cleanup(func() { envFile = oldEnv })
	envFile = filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("DEVTV_SERVER_URL", "https://devtv.example")
	t.Setenv("DEVTV_REQUEST_TIMEOUT", "3s")
	t.Setenv("DEVTV_DATA_DIR", "/tmp/devtv")

	cfg := &Config{ServerURL: "x", RequestTimeout: time.Second, DataDir: "y"}
	parseEnv(cfg)

	assert.Equal(t, "https://devtv.example", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/devtv", cfg.DataDir)
}

func TestParseEnv_BadDurationKeepsValue(t *testing.T) {
	oldEnv := envFile
	t.Cleanup(func() { envFile = oldEnv })
	envFile = filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("DEVTV_REQUEST_TIMEOUT", "soon")

	cfg := &Config{RequestTimeout: time.Second}
	parseEnv(cfg)

	assert.Equal(t, time.Second, cfg.RequestTimeout)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	oldEnv := envFile
	t.Cleanup(func() { envFile = oldEnv })
	envFile = filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEVTV_DATA_DIR=/from/dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DEVTV_DATA_DIR") })

	cfg := &Config{DataDir: "default"}
	parseEnv(cfg)

	assert.Equal(t, "/from/dotenv", cfg.DataDir)
}
