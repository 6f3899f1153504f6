package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

var envFile = ".env"

func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	if v, ok := os.LookupEnv("DEVTV_SERVER_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv("DEVTV_REQUEST_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v, ok := os.LookupEnv("DEVTV_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
}
