package auth

import (
	"errors"

	"github.com/dmitrijs2005/bookshelf/internal/client/api"
)

var (
	// ErrMissingCredentials means no usable token exists and no fallback
	// email/password is configured. The user has to configure credentials;
	// retrying cannot help.
	ErrMissingCredentials = errors.New("missing credentials: email and password are not configured")

	// ErrPersist wraps a failure of the Persister. In-memory state has already
	// been updated when it is returned.
	ErrPersist = errors.New("persist session")
)

// IsRejected reports whether err is a login rejection by the server.
func IsRejected(err error) bool {
	return api.IsRejected(err)
}
