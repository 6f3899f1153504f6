// Package config loads runtime configuration for the devtv CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: DEVTV_SERVER_URL, DEVTV_REQUEST_TIMEOUT, DEVTV_DATA_DIR,
//     optionally read from a .env file.
//  3. Optional JSON file selected with -c or -config.
//  4. Command flags (--server, --timeout, --data-dir) bound by package cli.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "data_dir": "/home/me/.config/devtv"
//	}
package config
