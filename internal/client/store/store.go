// Package store persists the session token triple between runs.
//
// A Store is keyed by server origin, so one database can hold the sessions of
// several configured servers. Stores satisfy auth.Persister: every new token
// triple is written synchronously, and an all-zero snapshot deletes the
// record. When a secret is configured, tokens are sealed with AES-GCM under
// an argon2id-derived key before they are written.
//
// Backends: SQLite (default, local file), Redis (shared between machines) and
// an in-memory store for tests and throwaway sessions.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrSecretRequired is returned by Load when the record is sealed but the
	// store was opened without a secret.
	ErrSecretRequired = errors.New("stored session is sealed; a store secret is required")
)

// Store loads and persists the session of one origin.
type Store interface {
	Persist(ctx context.Context, snap session.Snapshot) error
	Load(ctx context.Context) (session.Snapshot, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	DSN    string
	Origin string
	Secret string
}

// Open returns the backend named by opts.Driver. An empty driver means SQLite.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		return OpenSQLite(ctx, opts.DSN, opts.Origin, opts.Secret)
	case DriverRedis:
		return OpenRedis(ctx, opts.DSN, opts.Origin, opts.Secret)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
