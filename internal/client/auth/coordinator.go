// Package auth decides, before each protected call, whether the current
// credentials can be used and renews them when they cannot.
//
// The decision order is: usable token, then refresh, then full login with the
// configured email and password. Every successful exchange is applied to the
// session State and handed to the Persister before control returns.
//
// Concurrent callers that find the token unusable share a single renewal via
// singleflight, and refreshes with the same refresh token are never issued
// twice at once, so a server that rotates refresh tokens on use does not
// reject the slower caller. A shared exchange is detached from the
// cancellation of whichever caller started it.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
)

// Exchanger performs the login and refresh wire exchanges.
type Exchanger interface {
	Login(ctx context.Context, email, password string) (session.Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (session.Credentials, error)
}

// Coordinator owns the credential lifecycle of one server connection.
type Coordinator struct {
	state     *session.State
	exchanger Exchanger
	persister Persister
	logger    logging.Logger

	flight singleflight.Group
}

// NewCoordinator wires a Coordinator. A nil persister is replaced with
// NopPersister.
func NewCoordinator(state *session.State, exchanger Exchanger, persister Persister, logger logging.Logger) *Coordinator {
	if persister == nil {
		persister = NopPersister
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{
		state:     state,
		exchanger: exchanger,
		persister: persister,
		logger:    logger,
	}
}

// State exposes the underlying credential record.
func (c *Coordinator) State() *session.State { return c.state }

// Usable reports whether the current access token may be sent without renewal.
func (c *Coordinator) Usable() bool { return c.state.Usable() }

// AccessToken returns the current access token, possibly empty.
func (c *Coordinator) AccessToken() string { return c.state.AccessToken() }

// HasRefreshToken reports whether a refresh exchange is possible.
func (c *Coordinator) HasRefreshToken() bool { return c.state.RefreshToken() != "" }

// RejectAccessToken forgets token after the server refused it, unless a
// concurrent caller has already replaced it.
func (c *Coordinator) RejectAccessToken(t string) bool { return c.state.RejectAccessToken(t) }

// EnsureAuthenticated returns nil once the state holds a usable access token.
// Refresh failures degrade to login; login failures and ErrMissingCredentials
// are returned unchanged.
func (c *Coordinator) EnsureAuthenticated(ctx context.Context) error {
	if c.state.Usable() {
		return nil
	}

	// The shared renewal must outlive any single caller: a cancelled caller
	// stops waiting, but the exchange finishes for the others.
	ch := c.flight.DoChan("ensure", func() (any, error) {
		return nil, c.ensure(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		if r.Shared {
			c.logger.Debug(ctx, "joined in-flight authentication")
		}
		return r.Err
	}
}

func (c *Coordinator) ensure(ctx context.Context) error {
	if c.state.Usable() {
		return nil
	}

	if c.HasRefreshToken() {
		ok, err := c.Refresh(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	email, password := c.state.Fallback()
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	_, err := c.Login(ctx, email, password)
	return err
}

// Login performs a full password login, applies the result and persists it.
// A server rejection is returned as *api.RejectedError and is not retried.
func (c *Coordinator) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	creds, err := c.exchanger.Login(ctx, email, password)
	if err != nil {
		c.logger.Warn(ctx, "login failed", "email", email, "error", err)
		return session.Credentials{}, err
	}

	snap := c.state.Apply(creds)
	c.logger.Info(ctx, "logged in", "email", email, "expires_at", snap.ExpiresAt)

	if err := c.persist(ctx, snap); err != nil {
		return creds, err
	}
	return creds, nil
}

// Refresh renews the access token with the current refresh token. It returns
// false without any network call when no refresh token is held. Any exchange
// failure clears the refresh state and yields false with a nil error. The
// errors returned are a persistence failure after a successful refresh and
// ctx.Err() when the caller stops waiting for a shared exchange.
func (c *Coordinator) Refresh(ctx context.Context) (bool, error) {
	rt := c.state.RefreshToken()
	if rt == "" {
		return false, nil
	}

	ch := c.flight.DoChan("refresh:"+rt, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), rt)
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-ch:
		ok, _ := r.Val.(bool)
		return ok, r.Err
	}
}

func (c *Coordinator) refresh(ctx context.Context, rt string) (bool, error) {
	creds, err := c.exchanger.Refresh(ctx, rt)
	if err != nil {
		c.state.ClearRefreshState()
		c.logger.Warn(ctx, "refresh failed, falling back to login", "error", err)
		return false, nil
	}

	snap := c.state.Apply(creds)
	c.logger.Info(ctx, "session refreshed", "expires_at", snap.ExpiresAt)

	if err := c.persist(ctx, snap); err != nil {
		return true, err
	}
	return true, nil
}

// Logout drops every token and tells the Persister the session is gone.
// Fallback credentials are kept.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.state.Reset()
	c.logger.Info(ctx, "logged out")
	return c.persist(ctx, session.Snapshot{})
}

func (c *Coordinator) persist(ctx context.Context, snap session.Snapshot) error {
	if err := c.persister.Persist(ctx, snap); err != nil {
		c.logger.Error(ctx, "persisting session failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
