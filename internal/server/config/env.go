package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded if present. Variables already set in the process
// environment win over the file.
var envFile = ".env"

// parseEnv overlays DEVTV_* environment variables onto config. Values that
// fail to parse are ignored and the previous value is kept.
func parseEnv(config *Config) {
	_ = godotenv.Load(envFile)

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("DEVTV_HTTP_ADDR", &config.HTTPAddr)
	str("DEVTV_STORAGE", &config.StorageBackend)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("DEVTV_SECRET", &config.SecretKey)
	dur("DEVTV_SESSION_MAX_AGE", &config.SessionMaxAge)
	dur("DEVTV_SESSION_UPDATE_AGE", &config.SessionUpdateAge)
	dur("DEVTV_SWEEP_INTERVAL", &config.SweepInterval)
	if v, ok := os.LookupEnv("DEVTV_BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	boolean("DEVTV_MARK_SELF_REGISTERED_VERIFIED", &config.MarkSelfRegisteredVerified)
	boolean("DEVTV_SECURE_COOKIES", &config.SecureCookies)
	str("DEVTV_LOG_LEVEL", &config.LogLevel)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
