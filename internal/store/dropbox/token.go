package dropbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc exchanges long-lived credentials for a fresh access token.
// It is stateless; the tokenSource owns the current token.
type RefreshFunc func(ctx context.Context) (string, error)

// tokenSource holds the single owned access-token slot. Concurrent
// refreshes collapse into one in-flight exchange via singleflight, so a
// burst of 401s cannot stampede the auth endpoint.
type tokenSource struct {
	mu      sync.Mutex
	current string
	refresh RefreshFunc
	group   singleflight.Group
}

func newTokenSource(initial string, refresh RefreshFunc) *tokenSource {
	return &tokenSource{current: initial, refresh: refresh}
}

func (t *tokenSource) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Refresh obtains a new token, sharing one in-flight exchange between
// concurrent callers, and installs it as the current token.
func (t *tokenSource) Refresh(ctx context.Context) (string, error) {
	if t.refresh == nil {
		return "", fmt.Errorf("no refresh credentials configured")
	}
	v, err, _ := t.group.Do("refresh", func() (any, error) {
		tok, err := t.refresh(ctx)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.current = tok
		t.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// oauthRefresh builds the stateless refresh exchange against the store's
// token endpoint using the app key/secret and refresh token.
func oauthRefresh(httpc *http.Client, authURL, appKey, appSecret, refreshToken string) RefreshFunc {
	return func(ctx context.Context) (string, error) {
		form := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refreshToken},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", fmt.Errorf("build refresh request: %w", err)
		}
		basic := base64.StdEncoding.EncodeToString([]byte(appKey + ":" + appSecret))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+basic)

		resp, err := httpc.Do(req)
		if err != nil {
			return "", fmt.Errorf("token refresh: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("token refresh failed: status %d", resp.StatusCode)
		}

		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if payload.AccessToken == "" {
			return "", fmt.Errorf("no access_token in refresh response")
		}
		return payload.AccessToken, nil
	}
}
