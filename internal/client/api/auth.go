// Package api implements the HTTP wire operations of the bookshelf server:
// the login and refresh token exchanges and the book endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

const (
	LoginPath   = "/api/v1/auth/login"
	RefreshPath = "/api/v1/auth/refresh"

	// maxErrorBody bounds how much of an error body is surfaced to callers.
	maxErrorBody = 4 << 10
)

// TokenResponse is the JSON body returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthAPI performs the token exchanges. Its http.Client must not be the
// authenticated client, otherwise a refresh would recurse into itself.
type AuthAPI struct {
	baseURL string
	client  *http.Client
}

// NewAuthAPI creates an AuthAPI for the server at baseURL
// (scheme://host[:port], no trailing slash required).
func NewAuthAPI(baseURL string, client *http.Client) *AuthAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &AuthAPI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Login exchanges email and password for session credentials using a
// form-encoded password grant.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+LoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return session.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return a.exchange(req)
}

// Refresh exchanges a refresh token for new session credentials.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (session.Credentials, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Credentials{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+RefreshPath, bytes.NewReader(body))
	if err != nil {
		return session.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	return a.exchange(req)
}

func (a *AuthAPI) exchange(req *http.Request) (session.Credentials, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return session.Credentials{}, &RejectedError{StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return session.Credentials{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if tr.AccessToken == "" {
		return session.Credentials{}, fmt.Errorf("%w: empty access_token", ErrMalformedResponse)
	}

	return session.Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
