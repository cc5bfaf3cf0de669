package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBroker_EnvironmentToken(t *testing.T) {
	t.Setenv("WORKBACK_ENTERPRISE_TOKEN", "env-token")

	b := newTokenBroker(Config{}, http.DefaultClient)
	tok, err := b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-token", tok)
}

func TestTokenBroker_ClientCredentialsGrantAndCaching(t *testing.T) {
	t.Setenv("WORKBACK_ENTERPRISE_TOKEN", "")

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "workback-cli", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(map[string]any{"access_token": "granted", "expires_in": 3600})
	}))
	defer srv.Close()

	b := newTokenBroker(Config{TokenEndpoint: srv.URL, ClientID: "workback-cli", Scope: "llm.read"}, srv.Client())

	tok, err := b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted", tok)

	// Second call is served from cache.
	_, err = b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	b.Invalidate()
	_, err = b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenBroker_GrantErrorSurfacesAsAuthFailure(t *testing.T) {
	t.Setenv("WORKBACK_ENTERPRISE_TOKEN", "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
	}))
	defer srv.Close()

	// Silent acquisition fails; the interactive fallback needs a device
	// endpoint the stub does not provide, so Token errors out.
	b := newTokenBroker(Config{TokenEndpoint: srv.URL, ClientID: "bad"}, srv.Client())
	_, err := b.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}
