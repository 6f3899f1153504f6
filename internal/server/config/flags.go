package config

import (
	"flag"
	"os"
	"time"

	"github.com/devtv/devtv/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   storage backend: postgres or memory
//	-d string   PostgreSQL DSN
//	-s string   CSRF token HMAC secret
//	-t int      session max age, hours
//	-r int      session update age, minutes
//	-w int      expired session sweep interval, minutes
//	-k int      bcrypt cost
//	-l string   log level
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// os.Args is first filtered with flagx.FilterArgs so -c/-config and
// anything unknown never reach this flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-s", "-t", "-r", "-w", "-k", "-l", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.StorageBackend, "m", config.StorageBackend, "storage backend (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	maxAge := fs.Int("t", int(config.SessionMaxAge.Hours()), "session max age (in hours)")
	updateAge := fs.Int("r", int(config.SessionUpdateAge.Minutes()), "session update age (in minutes)")
	sweep := fs.Int("w", int(config.SweepInterval.Minutes()), "expired session sweep interval (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 avatar bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only durations given explicitly are applied, so finer values coming
	// from env or JSON are not truncated to whole hours/minutes.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionMaxAge = time.Duration(*maxAge) * time.Hour
		case "r":
			config.SessionUpdateAge = time.Duration(*updateAge) * time.Minute
		case "w":
			config.SweepInterval = time.Duration(*sweep) * time.Minute
		}
	})
}
