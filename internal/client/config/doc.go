// Package config loads runtime configuration for the bookshelf CLI.
//
// # Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: BOOKSHELF_SERVER, BOOKSHELF_EMAIL, BOOKSHELF_PASSWORD,
//     BOOKSHELF_STORE, BOOKSHELF_STORE_DSN, BOOKSHELF_STORE_SECRET,
//     BOOKSHELF_LOG_LEVEL, BOOKSHELF_LOG_FORMAT. A .env file in the working
//     directory is read first and never overrides variables already set.
//  4. Command-line flags: -s, -e, -store, -dsn, -t, -log-level.
//
// # JSON schema
//
//	{
//	  "server_url": "https://books.example.org",
//	  "email": "alice@example.org",
//	  "store_driver": "redis",
//	  "store_dsn": "redis://localhost:6379/0",
//	  "http_timeout": "15s",
//	  "log_level": "debug"
//	}
//
// Empty JSON fields leave the earlier value in place.
package config
