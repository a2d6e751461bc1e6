package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

const testOrigin = "https://books.example.org"

var expiry = time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)

func sampleSnapshot() session.Snapshot {
	return session.Snapshot{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: expiry}
}

func tempDSN(t *testing.T) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "bookshelf.db") + "?_pragma=busy_timeout(5000)"
}

func openSQLite(t *testing.T, dsn, origin, secret string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), dsn, origin, secret)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// backends runs the shared contract against every implementation.
func backends(t *testing.T) map[string]func(t *testing.T, secret string) Store {
	t.Helper()
	return map[string]func(t *testing.T, secret string) Store{
		"sqlite": func(t *testing.T, secret string) Store {
			return openSQLite(t, tempDSN(t), testOrigin, secret)
		},
		"redis": func(t *testing.T, secret string) Store {
			_, rdb := newRedis(t)
			return NewRedisStore(rdb, testOrigin, secret)
		},
		"memory": func(t *testing.T, _ string) Store {
			return NewMemoryStore()
		},
	}
}

func assertSnapshot(t *testing.T, want, got session.Snapshot) {
	t.Helper()
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expires_at: want %v, got %v", want.ExpiresAt, got.ExpiresAt)
}

func TestStore_Contract(t *testing.T) {
	for name, open := range backends(t) {
		for _, secret := range []string{"", "store-secret"} {
			t.Run(name+"/secret="+secret, func(t *testing.T) {
				ctx := context.Background()
				s := open(t, secret)

				empty, err := s.Load(ctx)
				require.NoError(t, err)
				assert.True(t, empty.IsZero())

				require.NoError(t, s.Persist(ctx, sampleSnapshot()))
				got, err := s.Load(ctx)
				require.NoError(t, err)
				assertSnapshot(t, sampleSnapshot(), got)

				// Idempotent for repeated writes of the same values.
				require.NoError(t, s.Persist(ctx, sampleSnapshot()))
				got, err = s.Load(ctx)
				require.NoError(t, err)
				assertSnapshot(t, sampleSnapshot(), got)

				next := session.Snapshot{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: expiry.Add(time.Hour)}
				require.NoError(t, s.Persist(ctx, next))
				got, err = s.Load(ctx)
				require.NoError(t, err)
				assertSnapshot(t, next, got)

				// Cleared refresh state is stored as such.
				partial := session.Snapshot{AccessToken: "access-3"}
				require.NoError(t, s.Persist(ctx, partial))
				got, err = s.Load(ctx)
				require.NoError(t, err)
				assertSnapshot(t, partial, got)

				require.NoError(t, s.Persist(ctx, session.Snapshot{}))
				got, err = s.Load(ctx)
				require.NoError(t, err)
				assert.True(t, got.IsZero())
			})
		}
	}
}

func TestSQLite_SessionsAreKeyedByOrigin(t *testing.T) {
	ctx := context.Background()
	dsn := tempDSN(t)
	a := openSQLite(t, dsn, "https://a.example", "")
	b := openSQLite(t, dsn, "https://b.example", "")

	require.NoError(t, a.Persist(ctx, sampleSnapshot()))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", got.AccessToken)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := tempDSN(t)

	first, err := OpenSQLite(ctx, dsn, testOrigin, "pw")
	require.NoError(t, err)
	require.NoError(t, first.Persist(ctx, sampleSnapshot()))
	require.NoError(t, first.Close())

	second := openSQLite(t, dsn, testOrigin, "pw")
	got, err := second.Load(ctx)
	require.NoError(t, err)
	assertSnapshot(t, sampleSnapshot(), got)
}

func TestSQLite_SealedAtRest(t *testing.T) {
	ctx := context.Background()
	dsn := tempDSN(t)
	s := openSQLite(t, dsn, testOrigin, "store-secret")
	require.NoError(t, s.Persist(ctx, sampleSnapshot()))

	raw, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer raw.Close()

	var access, refresh, salt []byte
	require.NoError(t, raw.QueryRow(`SELECT access_token, refresh_token, salt FROM sessions`).Scan(&access, &refresh, &salt))
	assert.NotContains(t, string(access), "access-1")
	assert.NotContains(t, string(refresh), "refresh-1")
	assert.Len(t, salt, 16)

	noSecret := NewSQLiteStore(s.db, testOrigin, "")
	_, err = noSecret.Load(ctx)
	assert.ErrorIs(t, err, ErrSecretRequired)

	wrong := NewSQLiteStore(s.db, testOrigin, "wrong-secret")
	_, err = wrong.Load(ctx)
	assert.Error(t, err)
}

func TestSQLite_ClosedDBErrorsAreWrapped(t *testing.T) {
	s, err := OpenSQLite(context.Background(), tempDSN(t), testOrigin, "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Persist(context.Background(), sampleSnapshot())
	require.ErrorContains(t, err, "failed to persist session["+testOrigin+"]")

	_, err = s.Load(context.Background())
	require.ErrorContains(t, err, "failed to load session["+testOrigin+"]")
}

func TestRedis_UsesOriginKeyAndSeals(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, testOrigin, "store-secret")

	require.NoError(t, s.Persist(ctx, sampleSnapshot()))

	key := redisKeyPrefix + testOrigin
	require.True(t, mr.Exists(key))
	assert.NotContains(t, mr.HGet(key, fieldAccess), "access-1")
	assert.Equal(t, "1740834000000", mr.HGet(key, fieldExpires))
}

func TestRedis_Unavailable(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, testOrigin, "")
	mr.Close()

	err := s.Persist(context.Background(), sampleSnapshot())
	assert.Error(t, err)
}

func TestOpen_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{DSN: tempDSN(t), Origin: testOrigin})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Options{Driver: DriverRedis, DSN: "redis://" + mr.Addr() + "/0", Origin: testOrigin})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestMemoryStore_CountsWrites(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Persist(context.Background(), sampleSnapshot()))
	require.NoError(t, m.Persist(context.Background(), sampleSnapshot()))
	assert.Equal(t, 2, m.Writes())
}
