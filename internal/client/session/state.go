// Package session holds the in-memory credential record for one configured
// server connection.
//
// # Overview
//
// A State owns the current access token, refresh token and the absolute
// instant the access token expires, together with the fallback email and
// password used for a full login. All mutation goes through a small set of
// transition operations (Apply, ClearAccessToken, ClearRefreshState, Restore,
// Reset); nothing outside this package writes the fields directly.
//
// # Usability
//
// An access token is usable only if it is non-empty, its expiry is known and
// the current time is before expiry minus SkewWindow. Expiry is checked lazily
// by the caller; there is no background timer.
//
// # Concurrency
//
// State is safe for concurrent use. Each transition is atomic with respect to
// the others.
package session

import (
	"math"
	"sync"
	"time"
)

// SkewWindow is subtracted from the expiry instant before a token is
// considered usable, so a token is never sent when it may expire mid-flight.
const SkewWindow = 60 * time.Second

// maxLifetimeSeconds is the largest expires_in that fits a time.Duration.
const maxLifetimeSeconds = math.MaxInt64 / int64(time.Second)

// Credentials is the wire-level result of a login or refresh exchange.
// ExpiresIn is whole seconds counted from the moment the response was received.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// Snapshot is a point-in-time copy of the token triple, as handed to
// persistence. A zero ExpiresAt means the expiry is unknown.
type Snapshot struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// IsZero reports whether the snapshot carries no tokens at all.
func (s Snapshot) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.ExpiresAt.IsZero()
}

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now. Tests use it to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// State is the credential record of a single server connection.
type State struct {
	mu sync.RWMutex

	accessToken  string
	refreshToken string
	expiresAt    time.Time

	email    string
	password string

	now func() time.Time
}

// NewState returns an empty State holding only the fallback credentials.
// Either of email and password may be empty, in which case full login is
// unavailable.
func NewState(email, password string, opts ...Option) *State {
	s := &State{email: email, password: password, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Usable reports whether the access token may be sent as is.
func (s *State) Usable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessToken == "" || s.expiresAt.IsZero() {
		return false
	}
	return s.now().Before(s.expiresAt.Add(-SkewWindow))
}

// Apply overwrites the token triple with freshly issued credentials and
// returns the resulting snapshot. The expiry is fixed at receipt time. When
// the server does not report a lifetime, the access token's own exp claim is
// used if it carries one; otherwise the expiry stays unknown.
//
// The fallback email and password are left untouched.
func (s *State) Apply(c Credentials) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if c.ExpiresIn > 0 {
		secs := min(c.ExpiresIn, maxLifetimeSeconds)
		expiresAt = s.now().Add(time.Duration(secs) * time.Second)
	} else if exp, ok := ExpiryFromJWT(c.AccessToken); ok {
		expiresAt = exp
	}

	s.accessToken = c.AccessToken
	s.refreshToken = c.RefreshToken
	s.expiresAt = expiresAt

	return s.snapshotLocked()
}

// ClearAccessToken forgets the access token only.
func (s *State) ClearAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// RejectAccessToken forgets the access token if it is still the given one.
// It returns false when another caller has already replaced it, which lets
// concurrent 401 handlers avoid discarding a token that was just renewed.
func (s *State) RejectAccessToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != token {
		return false
	}
	s.accessToken = ""
	return true
}

// ClearRefreshState forgets the refresh token and the expiry. It is applied
// after any failed refresh so a stale refresh token is never retried.
func (s *State) ClearRefreshState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

// Restore seeds the token triple from a previously persisted snapshot.
func (s *State) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = snap.AccessToken
	s.refreshToken = snap.RefreshToken
	s.expiresAt = snap.ExpiresAt
}

// Reset drops every token. Fallback credentials survive.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

// SetFallback replaces the email and password used for full login.
func (s *State) SetFallback(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.password = password
}

// Fallback returns the configured email and password.
func (s *State) Fallback() (email, password string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.password
}

// HasFallback reports whether both email and password are configured.
func (s *State) HasFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email != "" && s.password != ""
}

func (s *State) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *State) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// ExpiresAt returns the expiry instant and whether it is known.
func (s *State) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

// Snapshot returns a copy of the token triple.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		ExpiresAt:    s.expiresAt,
	}
}
