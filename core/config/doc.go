// Package config loads the application configuration.
//
// Values come from a .env file (if present) and the process environment, with defaults
// declared on the struct fields through the `default` tag. Nested keys map to upper case
// environment names joined by underscores, e.g. sync.workers -> SYNC_WORKERS.
//
// # Sections
//
//   - server: HTTP port and API key
//   - storage: S3 endpoint and credentials, default bucket and fs root
//   - log: level and format
//   - database: driver (mysql, sqlite) and connection settings
//   - sync: worker count, schedule and lock directory of the reconciliation sweep
package config
