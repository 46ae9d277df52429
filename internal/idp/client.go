// Package idp talks to the external identity provider's management API. It
// mirrors moderation decisions (suspend, unsuspend, delete) at the login edge.
//
// The platform's own account store is authoritative; everything here is a
// best-effort secondary write. Callers treat any returned *SyncError as a
// reconciliation item, never as an operation failure.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gavel/internal/platform/config"
)

const (
	// maxAttempts bounds retries for transient network failures. Non-2xx
	// responses are not transient and never retried, except one forced
	// token refresh on 401.
	maxAttempts = 3
	retryDelay  = 100 * time.Millisecond
)

const (
	OpSuspend   = "suspend"
	OpUnsuspend = "unsuspend"
	OpDelete    = "delete"
)

// Client issues management-API calls against the identity provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	tokens     *tokenSource
}

// New builds a Client from configuration. The config layer already rejects a
// configured domain without credentials; the check here guards direct
// construction in tests and tools.
func New(cfg config.IdPConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("idp: domain not configured")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("idp: management credentials missing for %s", cfg.Domain)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.Domain,
		timeout:    cfg.Timeout,
		tokens:     newTokenSource(httpClient, cfg.Domain, cfg.ClientID, cfg.ClientSecret, cfg.Audience),
	}, nil
}

// Suspend blocks the identity from logging in.
func (c *Client) Suspend(ctx context.Context, identityID string) error {
	return c.setSuspended(ctx, OpSuspend, identityID, true)
}

// Unsuspend restores the identity's ability to log in.
func (c *Client) Unsuspend(ctx context.Context, identityID string) error {
	return c.setSuspended(ctx, OpUnsuspend, identityID, false)
}

// Delete removes the identity at the provider. Only used for permanent
// terminations; the local account record is retained either way.
func (c *Client) Delete(ctx context.Context, identityID string) error {
	return c.do(ctx, OpDelete, identityID, func(ctx context.Context, token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.userURL(identityID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
}

func (c *Client) setSuspended(ctx context.Context, operation, identityID string, suspended bool) error {
	payload, _ := json.Marshal(map[string]bool{"is_suspended": suspended})
	return c.do(ctx, operation, identityID, func(ctx context.Context, token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.userURL(identityID), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (c *Client) userURL(identityID string) string {
	return c.baseURL + "/api/v1/user?id=" + url.QueryEscape(identityID)
}

// do runs one management call with its own deadline, independent of (and
// shorter than) the caller's store timeout. Attempt policy: network errors
// retry with backoff, a 401 invalidates the cached token and retries once
// with a fresh one, any other non-2xx fails immediately.
func (c *Client) do(ctx context.Context, operation, identityID string, newReq func(context.Context, string) (*http.Request, error)) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	refreshed := false
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &SyncError{Operation: operation, IdentityID: identityID, Err: ctx.Err()}
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return &SyncError{Operation: operation, IdentityID: identityID, Err: err}
		}

		req, err := newReq(ctx, token)
		if err != nil {
			return &SyncError{Operation: operation, IdentityID: identityID, Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			c.tokens.Invalidate(token)
			refreshed = true
			lastErr = fmt.Errorf("unauthorized after refresh")
		default:
			return &SyncError{Operation: operation, IdentityID: identityID, StatusCode: resp.StatusCode}
		}
	}

	return &SyncError{Operation: operation, IdentityID: identityID, Err: lastErr}
}
