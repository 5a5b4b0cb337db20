package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

func providerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		data, _ := body["data"].(map[string]any)
		name, _ := data["full_name"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-signup",
			"user": map[string]any{
				"id":            "user-1",
				"email":         body["email"],
				"user_metadata": map[string]string{"full_name": name},
			},
		})
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-signin",
			"user": map[string]any{
				"id":            "user-1",
				"email":         body["email"],
				"user_metadata": map[string]string{"full_name": "Jordan Smith"},
			},
		})
	})
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-signin" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "user-1",
			"email":         "jordan@example.com",
			"user_metadata": map[string]string{"full_name": "Jordan Smith"},
		})
	})
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func TestClientSignUp(t *testing.T) {
	server := providerServer(t)
	defer server.Close()

	c := NewClient(server.URL, "anon-key", logging.New("error"))
	sess, err := c.SignUp(context.Background(), "Jordan Smith", "jordan@example.com", "hunter22")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "Jordan Smith", sess.DisplayName)
	assert.Equal(t, "tok-signup", c.Token())
}

func TestClientSignInAndCurrentSession(t *testing.T) {
	server := providerServer(t)
	defer server.Close()

	c := NewClient(server.URL, "anon-key", logging.New("error"))
	sess, err := c.SignIn(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)

	resolved, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, resolved.UserID)
}

func TestClientSignInBadPassword(t *testing.T) {
	server := providerServer(t)
	defer server.Close()

	c := NewClient(server.URL, "anon-key", logging.New("error"))
	_, err := c.SignIn(context.Background(), "jordan@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, c.Token())
}

func TestCurrentSessionWithoutTokenIsAnonymous(t *testing.T) {
	c := NewClient("http://localhost:0", "anon-key", logging.New("error"))
	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
}

func TestCurrentSessionStaleTokenDropsToAnonymous(t *testing.T) {
	server := providerServer(t)
	defer server.Close()

	c := NewClient(server.URL, "anon-key", logging.New("error"))
	c.setToken("expired")

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
	assert.Empty(t, c.Token(), "stale token must be discarded")
}

func TestSignOutClearsToken(t *testing.T) {
	server := providerServer(t)
	defer server.Close()

	c := NewClient(server.URL, "anon-key", logging.New("error"))
	_, err := c.SignIn(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))
	assert.Empty(t, c.Token())
}

func countingUserServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "user-1",
			"email":         "jordan@example.com",
			"user_metadata": map[string]string{"full_name": "Jordan Smith"},
		})
	})
	return httptest.NewServer(mux)
}

func TestCurrentSessionServedFromCache(t *testing.T) {
	hits := 0
	server := countingUserServer(t, &hits)
	defer server.Close()

	store, _ := newTestStore(t)
	cached := session.Session{Authenticated: true, UserID: "user-1", DisplayName: "Jordan Smith", Email: "jordan@example.com"}
	require.NoError(t, store.Save(context.Background(), "tok-cached", cached))

	c := NewClient(server.URL, "anon-key", logging.New("error")).WithSessionCache(store)
	c.setToken("tok-cached")

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, sess)
	assert.Equal(t, 0, hits, "cached lookup must not hit the provider")
}

func TestCurrentSessionCacheMissFallsBackAndPopulates(t *testing.T) {
	hits := 0
	server := countingUserServer(t, &hits)
	defer server.Close()

	store, _ := newTestStore(t)
	c := NewClient(server.URL, "anon-key", logging.New("error")).WithSessionCache(store)
	c.setToken("tok-fresh")

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, 1, hits)

	loaded, found, err := store.Load(context.Background(), "tok-fresh")
	require.NoError(t, err)
	require.True(t, found, "provider result must be cached")
	assert.Equal(t, sess, loaded)

	resolved, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess, resolved)
	assert.Equal(t, 1, hits, "second lookup must be served from cache")
}
