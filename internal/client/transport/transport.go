// Package transport provides the authenticated request path: an
// http.RoundTripper that makes sure credentials are usable before a call,
// attaches the bearer token, and recovers once from a 401 response.
//
// # Recovery cascade
//
// On 401 the rejected token is cleared locally, then the session is renewed
// by refresh, or by full login when refresh is unavailable or fails, and the
// original request is dispatched exactly once more. Whatever the retry
// returns is handed back to the caller, including a second 401.
//
// # Errors
//
// A failure of the proactive check aborts the call before anything is sent.
// A login or refresh failure during recovery is returned as the error. If the
// retry cannot be built, the original 401 response is returned.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
)

// Authenticator is the part of the auth coordinator the transport relies on.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) error
	Refresh(ctx context.Context) (bool, error)
	Usable() bool
	AccessToken() string
	HasRefreshToken() bool
	RejectAccessToken(token string) bool
}

// Transport is an http.RoundTripper that authenticates every request sent to
// its origin. Requests to other hosts pass through untouched so the bearer
// token never leaks through redirects.
type Transport struct {
	base   http.RoundTripper
	auth   Authenticator
	origin *url.URL
	logger logging.Logger
}

// New returns a Transport for the server at origin. A nil base uses
// http.DefaultTransport.
func New(base http.RoundTripper, auth Authenticator, origin string, logger logging.Logger) (*Transport, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Transport{base: base, auth: auth, origin: u, logger: logger}, nil
}

// NewClient wraps a Transport into an *http.Client. A zero timeout means none.
func NewClient(base http.RoundTripper, auth Authenticator, origin string, timeout time.Duration, logger logging.Logger) (*http.Client, error) {
	t, err := New(base, auth, origin, logger)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: t, Timeout: timeout}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.sameOrigin(req.URL) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()

	if err := t.auth.EnsureAuthenticated(ctx); err != nil {
		closeBody(req)
		return nil, err
	}

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get(common.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := t.logger.With("request_id", requestID, "method", req.Method, "path", req.URL.Path)

	token := t.auth.AccessToken()
	first, err := buildAttempt(req, getBody, token, requestID)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "dispatched", "attempt", 1, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	t.auth.RejectAccessToken(token)
	log.Info(ctx, "server rejected access token, recovering")

	if err := t.recover(ctx); err != nil {
		drainAndClose(resp)
		log.Warn(ctx, "recovery failed", "error", err)
		return nil, err
	}

	retry, err := buildAttempt(req, getBody, t.auth.AccessToken(), requestID)
	if err != nil {
		log.Warn(ctx, "cannot rebuild request, returning original response", "error", err)
		return resp, nil
	}
	drainAndClose(resp)

	resp, err = t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "dispatched", "attempt", 2, "status", resp.StatusCode)
	return resp, nil
}

// recover renews the session after a server-side rejection: refresh first,
// full login otherwise. A token installed meanwhile by a concurrent caller is
// reused as is.
func (t *Transport) recover(ctx context.Context) error {
	if t.auth.Usable() {
		return nil
	}

	if t.auth.HasRefreshToken() {
		ok, err := t.auth.Refresh(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return t.auth.EnsureAuthenticated(ctx)
}

func (t *Transport) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, t.origin.Scheme) && strings.EqualFold(u.Host, t.origin.Host)
}

// buildAttempt clones req with a fresh body and the given bearer token.
func buildAttempt(req *http.Request, getBody func() (io.ReadCloser, error), token, requestID string) (*http.Request, error) {
	r := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
		r.GetBody = getBody
	}
	r.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	r.Header.Set(common.RequestIDHeader, requestID)
	return r, nil
}

// replayableBody returns a function producing a fresh copy of the request
// body, buffering it once if the request cannot rewind on its own. The
// original body is always closed, as RoundTrip requires.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
