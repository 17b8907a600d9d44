package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleExchange(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "the-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":   "Trader@Example.com",
			"name":    "Trader",
			"picture": "https://example.com/p.png",
		})
	}))
	defer userSrv.Close()

	client := NewGoogleClient("client-id", "secret", "http://localhost/callback", zerolog.Nop())
	client.tokenURL = tokenSrv.URL
	client.userInfoURL = userSrv.URL

	profile, err := client.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", profile.Email)
	assert.Equal(t, "Trader", profile.Name)
}

func TestGoogleExchangeTokenFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	client := NewGoogleClient("client-id", "secret", "http://localhost/callback", zerolog.Nop())
	client.tokenURL = tokenSrv.URL

	_, err := client.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGoogleExchangeEmptyToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
	}))
	defer tokenSrv.Close()

	client := NewGoogleClient("client-id", "secret", "http://localhost/callback", zerolog.Nop())
	client.tokenURL = tokenSrv.URL

	_, err := client.Exchange(context.Background(), "code")
	assert.Error(t, err)
}

func TestGoogleExchangeNoEmail(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	}))
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "No Email"})
	}))
	defer userSrv.Close()

	client := NewGoogleClient("client-id", "secret", "http://localhost/callback", zerolog.Nop())
	client.tokenURL = tokenSrv.URL
	client.userInfoURL = userSrv.URL

	_, err := client.Exchange(context.Background(), "code")
	assert.Error(t, err)
}
