// Package config handles configuration loading for folio.
//
// # Configuration File
//
// The file is chosen in order:
//
//  1. The --config flag
//  2. The FOLIO_CONFIG environment variable
//  3. ./folio.yaml
//
// Files ending in .toml are read as TOML; anything else is read as YAML.
// Keys that are omitted keep the values from Default().
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  session_secret: "${FOLIO_SESSION_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  secure_cookies: false       # set behind TLS
//
//	database:
//	  driver: "sqlite"            # sqlite, postgres, memory
//	  path: "/var/lib/folio/folio.db"
//	  dsn: "postgres://folio@localhost/folio"
//
//	auth:
//	  session_secret: "${FOLIO_SESSION_SECRET}"  # at least 32 bytes
//	  session_ttl: "168h"         # cookie lifetime and idle limit
//	  sweep_interval: "1h"        # how often idle sessions are removed
//
//	logging:
//	  level: "info"               # debug, info, warn, error
//	  format: "text"              # text, json
//
// Durations use time.ParseDuration syntax.
package config
