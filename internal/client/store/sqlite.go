package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
	"github.com/dmitrijs2005/bookshelf/internal/dbx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultSQLiteDSN is used when no DSN is configured.
const DefaultSQLiteDSN = "file:bookshelf.db?_pragma=busy_timeout(5000)"

// SQLiteStore keeps one row per origin in the sessions table.
type SQLiteStore struct {
	db     *sql.DB
	origin string
	sealer *sealer
}

// OpenSQLite opens (creating if needed) the database at dsn and applies the
// embedded migrations.
func OpenSQLite(ctx context.Context, dsn, origin, secret string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return NewSQLiteStore(db, origin, secret), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB, origin, secret string) *SQLiteStore {
	return &SQLiteStore{db: db, origin: origin, sealer: newSealer(secret)}
}

// RunMigrations brings the schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *SQLiteStore) Persist(ctx context.Context, snap session.Snapshot) error {
	if snap.IsZero() {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE origin = ?`, s.origin); err != nil {
			return fmt.Errorf("failed to delete session[%s]: %w", s.origin, err)
		}
		return nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing []byte
		err := tx.QueryRowContext(ctx, `SELECT salt FROM sessions WHERE origin = ?`, s.origin).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		salt := s.sealer.salt(existing)
		access, err := s.sealer.seal(salt, snap.AccessToken)
		if err != nil {
			return err
		}
		refresh, err := s.sealer.seal(salt, snap.RefreshToken)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (origin, access_token, refresh_token, expires_at_ms, salt, updated_at_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(origin) DO UPDATE SET
				access_token  = excluded.access_token,
				refresh_token = excluded.refresh_token,
				expires_at_ms = excluded.expires_at_ms,
				salt          = excluded.salt,
				updated_at_ms = excluded.updated_at_ms
		`, s.origin, access, refresh, toMillis(snap.ExpiresAt), salt, time.Now().UnixMilli())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to persist session[%s]: %w", s.origin, err)
	}
	return nil
}

// Load returns the stored snapshot, or a zero snapshot if there is none.
func (s *SQLiteStore) Load(ctx context.Context) (session.Snapshot, error) {
	var (
		access, refresh, salt []byte
		expiresMs             int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at_ms, salt FROM sessions WHERE origin = ?`,
		s.origin).Scan(&access, &refresh, &expiresMs, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, nil
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to load session[%s]: %w", s.origin, err)
	}

	accessToken, err := s.sealer.open(salt, access)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to open session[%s]: %w", s.origin, err)
	}
	refreshToken, err := s.sealer.open(salt, refresh)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to open session[%s]: %w", s.origin, err)
	}

	return session.Snapshot{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    fromMillis(expiresMs),
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
