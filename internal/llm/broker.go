package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// tokenBroker caches one bearer token per process for the enterprise
// provider. Acquisition is silent first (cached token, environment, then a
// client-credentials grant); on miss it falls back to an interactive
// device-code flow. The scope is fixed at construction.
type tokenBroker struct {
	tokenEndpoint string
	clientID      string
	scope         string
	http          *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenBroker(cfg Config, client *http.Client) *tokenBroker {
	return &tokenBroker{
		tokenEndpoint: cfg.TokenEndpoint,
		clientID:      cfg.ClientID,
		scope:         cfg.Scope,
		http:          client,
	}
}

// Token returns a valid bearer token, acquiring one if the cache is empty
// or expired.
func (b *tokenBroker) Token(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token != "" && time.Now().Before(b.expires) {
		return b.token, nil
	}

	if tok, exp, ok := b.acquireSilent(ctx); ok {
		b.token, b.expires = tok, exp
		return tok, nil
	}

	tok, exp, err := b.acquireInteractive(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	b.token, b.expires = tok, exp
	return tok, nil
}

// Invalidate drops the cached token, typically after a 401.
func (b *tokenBroker) Invalidate() {
	b.mu.Lock()
	b.token = ""
	b.expires = time.Time{}
	b.mu.Unlock()
}

// acquireSilent tries the environment token, then a client-credentials
// grant against the broker endpoint.
func (b *tokenBroker) acquireSilent(ctx context.Context) (string, time.Time, bool) {
	if tok := os.Getenv("WORKBACK_ENTERPRISE_TOKEN"); tok != "" {
		return tok, time.Now().Add(50 * time.Minute), true
	}
	if b.tokenEndpoint == "" || b.clientID == "" {
		return "", time.Time{}, false
	}

	form := url.Values{
		"grant_type": {"client_credentials"},
		"client_id":  {b.clientID},
		"scope":      {b.scope},
	}
	tok, exp, err := b.postTokenForm(ctx, form)
	if err != nil {
		return "", time.Time{}, false
	}
	return tok, exp, true
}

// acquireInteractive runs a device-code flow: request a code, print the
// verification prompt, then poll until the user completes sign-in.
func (b *tokenBroker) acquireInteractive(ctx context.Context) (string, time.Time, error) {
	if b.tokenEndpoint == "" || b.clientID == "" {
		return "", time.Time{}, fmt.Errorf("no broker endpoint configured")
	}

	deviceURL := strings.TrimSuffix(b.tokenEndpoint, "/token") + "/devicecode"
	form := url.Values{
		"client_id": {b.clientID},
		"scope":     {b.scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	var dc struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		Interval        int    `json:"interval"`
		ExpiresIn       int    `json:"expires_in"`
		Message         string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dc); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding device code response: %w", err)
	}
	if dc.Message != "" {
		fmt.Fprintln(os.Stderr, dc.Message)
	} else {
		fmt.Fprintf(os.Stderr, "To sign in, visit %s and enter code %s\n", dc.VerificationURI, dc.UserCode)
	}

	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", time.Time{}, ctx.Err()
		case <-time.After(interval):
		}

		pollForm := url.Values{
			"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
			"client_id":   {b.clientID},
			"device_code": {dc.DeviceCode},
		}
		tok, exp, err := b.postTokenForm(ctx, pollForm)
		if err != nil {
			if strings.Contains(err.Error(), "authorization_pending") {
				continue
			}
			return "", time.Time{}, err
		}
		return tok, exp, nil
	}
	return "", time.Time{}, fmt.Errorf("device code expired before sign-in completed")
}

func (b *tokenBroker) postTokenForm(ctx context.Context, form url.Values) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		if body.Error != "" {
			return "", time.Time{}, fmt.Errorf("token endpoint: %s", body.Error)
		}
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	expiresIn := body.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	// Refresh a minute early to avoid using a token at its expiry edge.
	return body.AccessToken, time.Now().Add(time.Duration(expiresIn-60) * time.Second), nil
}
