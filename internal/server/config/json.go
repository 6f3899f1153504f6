package config

import (
	"encoding/json"
	"os"

	"github.com/devtv/devtv/internal/flagx"
	"github.com/devtv/devtv/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both "720h" style strings and integer nanoseconds (timex.Duration).
// Pointers mark optional fields: anything missing from the file keeps the
// value loaded so far.
type JsonConfig struct {
	HTTPAddr                   string         `json:"http_addr"`
	StorageBackend             string         `json:"storage_backend"`
	DatabaseDSN                string         `json:"database_dsn"`
	SecretKey                  string         `json:"secret_key"`
	SessionMaxAge              timex.Duration `json:"session_max_age"`
	SessionUpdateAge           timex.Duration `json:"session_update_age"`
	SweepInterval              timex.Duration `json:"sweep_interval"`
	BcryptCost                 int            `json:"bcrypt_cost"`
	MarkSelfRegisteredVerified *bool          `json:"mark_self_registered_verified"`
	SecureCookies              *bool          `json:"secure_cookies"`
	LogLevel                   string         `json:"log_level"`
	S3RootUser                 string         `json:"s3_root_user"`
	S3RootPassword             string         `json:"s3_root_password"`
	S3Bucket                   string         `json:"s3_bucket"`
	S3Region                   string         `json:"s3_region"`
	S3BaseEndpoint             string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing happens. An unreadable file or invalid JSON panics: the
// server must not start on a config the operator did not intend.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionMaxAge.Duration > 0 {
		config.SessionMaxAge = c.SessionMaxAge.Duration
	}
	if c.SessionUpdateAge.Duration > 0 {
		config.SessionUpdateAge = c.SessionUpdateAge.Duration
	}
	if c.SweepInterval.Duration > 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MarkSelfRegisteredVerified != nil {
		config.MarkSelfRegisteredVerified = *c.MarkSelfRegisteredVerified
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
