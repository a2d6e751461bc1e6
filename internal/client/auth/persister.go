package auth

import (
	"context"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

// Persister durably records the token triple whenever new tokens are obtained.
// An all-zero snapshot means the session was discarded. Implementations must
// be idempotent for repeated calls with the same snapshot.
type Persister interface {
	Persist(ctx context.Context, snap session.Snapshot) error
}

// PersisterFunc adapts a plain function to Persister.
type PersisterFunc func(ctx context.Context, snap session.Snapshot) error

func (f PersisterFunc) Persist(ctx context.Context, snap session.Snapshot) error {
	return f(ctx, snap)
}

// NopPersister keeps tokens in memory only.
var NopPersister Persister = PersisterFunc(func(context.Context, session.Snapshot) error { return nil })
