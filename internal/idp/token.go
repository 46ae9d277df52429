package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshMargin refreshes tokens slightly before expiry so in-flight requests
// never carry a token that expires mid-call.
const refreshMargin = 60 * time.Second

// tokenSource obtains and caches the short-lived management token via the
// OAuth2 client-credentials exchange. The cache is process-wide and read by
// many concurrent sync calls; refresh runs under singleflight so a cold or
// expired cache triggers exactly one token-exchange request, with concurrent
// callers awaiting the same result.
type tokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	audience     string

	group singleflight.Group
	now   func() time.Time

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

func newTokenSource(httpClient *http.Client, domain, clientID, clientSecret, audience string) *tokenSource {
	return &tokenSource{
		httpClient:   httpClient,
		tokenURL:     domain + "/oauth2/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		audience:     audience,
		now:          time.Now,
	}
}

// Token returns a valid management token, refreshing it if needed.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := ts.cached(); ok {
		return token, nil
	}

	v, err, _ := ts.group.Do("token", func() (any, error) {
		// A caller that queued behind the winning refresh finds a fresh token.
		if token, ok := ts.cached(); ok {
			return token, nil
		}
		return ts.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token if it is still the one the caller used.
// Called on 401 so the next Token call performs a fresh exchange; a token
// already replaced by another caller is left alone.
func (ts *tokenSource) Invalidate(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.accessToken == token {
		ts.accessToken = ""
		ts.expiresAt = time.Time{}
	}
}

func (ts *tokenSource) cached() (string, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if ts.accessToken == "" || ts.now().After(ts.expiresAt.Add(-refreshMargin)) {
		return "", false
	}
	return ts.accessToken, true
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (ts *tokenSource) exchange(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
	}
	if ts.audience != "" {
		form.Set("audience", ts.audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access_token")
	}

	ts.mu.Lock()
	ts.accessToken = body.AccessToken
	ts.expiresAt = ts.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	ts.mu.Unlock()

	return body.AccessToken, nil
}
