package authclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/authclient"
	"github.com/dmitrymomot/authkit/pkg/tokens"
)

// mintAccess builds a parseable access token carrying the given claim.
func mintAccess(t *testing.T, emailVerified bool) string {
	t.Helper()
	claims := tokens.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7b0d2c7e-94a5-41d9-9b9e-6a4a3e3a1f11",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
		Role:          "user",
		EmailVerified: emailVerified,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func validPair(t *testing.T) tokens.Pair {
	t.Helper()
	return tokens.Pair{
		AccessToken:     mintAccess(t, true),
		RefreshToken:    "refresh-1",
		AccessExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

// authServer simulates the auth server: a protected resource that
// rejects all but the current access token, and a refresh endpoint
// that rotates it.
type authServer struct {
	t       *testing.T
	baseURL string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	refreshCalls atomic.Int64
	refreshDelay time.Duration
	rejectAll    bool
	rejectCode   string
}

func (s *authServer) url(t *testing.T) string {
	t.Helper()
	return s.baseURL
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		time.Sleep(s.refreshDelay)

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))

		s.mu.Lock()
		defer s.mu.Unlock()
		if body.RefreshToken != s.refreshToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"code": "REFRESH_INVALID"})
			return
		}
		s.accessToken = mintAccess(s.t, true)
		s.refreshToken = s.refreshToken + "x"
		json.NewEncoder(w).Encode(tokens.Pair{
			AccessToken:     s.accessToken,
			RefreshToken:    s.refreshToken,
			AccessExpiresAt: time.Now().Add(15 * time.Minute),
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		current := s.accessToken
		reject := s.rejectAll
		code := s.rejectCode
		s.mu.Unlock()
		if code == "" {
			code = "TOKEN_EXPIRED"
		}

		if reject || r.Header.Get("Authorization") != "Bearer "+current {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"code": code})
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(append([]byte("ok:"), body...))
	})
	return mux
}

func newTestSetup(t *testing.T) (*authServer, *authclient.Controller) {
	t.Helper()

	server := &authServer{t: t, accessToken: "", refreshToken: "refresh-1"}
	srv := httptest.NewServer(server.handler())
	t.Cleanup(srv.Close)
	server.baseURL = srv.URL

	controller, err := authclient.New(authclient.Config{
		BaseURL:        srv.URL,
		RefreshTimeout: 5 * time.Second,
		RefreshBudget:  5,
		RefreshWindow:  time.Minute,
	})
	require.NoError(t, err)
	return server, controller
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := authclient.New(authclient.Config{})
	assert.ErrorIs(t, err, authclient.ErrMissingBaseURL)
}

func TestBoot(t *testing.T) {
	t.Parallel()

	t.Run("no session", func(t *testing.T) {
		t.Parallel()

		_, controller := newTestSetup(t)
		require.NoError(t, controller.Boot(context.Background()))
		assert.Equal(t, authclient.StateUnauthenticated, controller.State())
	})

	t.Run("durable slot wins", func(t *testing.T) {
		t.Parallel()

		durable := authclient.NewMemoryStorage()
		ephemeral := authclient.NewMemoryStorage()
		durablePair := validPair(t)
		require.NoError(t, durable.Save(durablePair))
		require.NoError(t, ephemeral.Save(tokens.Pair{AccessToken: "stale", RefreshToken: "stale"}))

		controller, err := authclient.New(authclient.Config{BaseURL: "http://localhost"},
			authclient.WithDurableStorage(durable),
			authclient.WithEphemeralStorage(ephemeral))
		require.NoError(t, err)

		require.NoError(t, controller.Boot(context.Background()))
		assert.Equal(t, authclient.StateAuthenticated, controller.State())
	})

	t.Run("garbage access token is dropped without a network call", func(t *testing.T) {
		t.Parallel()

		durable := authclient.NewMemoryStorage()
		require.NoError(t, durable.Save(tokens.Pair{
			AccessToken:     "not-a-jwt-at-all",
			RefreshToken:    "refresh-1",
			AccessExpiresAt: time.Now().Add(15 * time.Minute),
		}))

		// An unroutable base URL proves Boot stays local.
		controller, err := authclient.New(authclient.Config{BaseURL: "http://localhost:1"},
			authclient.WithDurableStorage(durable))
		require.NoError(t, err)

		require.NoError(t, controller.Boot(context.Background()))
		assert.Equal(t, authclient.StateUnauthenticated, controller.State())

		_, ok, err := durable.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unverified email claim", func(t *testing.T) {
		t.Parallel()

		durable := authclient.NewMemoryStorage()
		require.NoError(t, durable.Save(tokens.Pair{
			AccessToken:     mintAccess(t, false),
			RefreshToken:    "refresh-1",
			AccessExpiresAt: time.Now().Add(15 * time.Minute),
		}))

		controller, err := authclient.New(authclient.Config{BaseURL: "http://localhost"},
			authclient.WithDurableStorage(durable))
		require.NoError(t, err)

		require.NoError(t, controller.Boot(context.Background()))
		assert.Equal(t, authclient.StateEmailVerificationRequired, controller.State())
	})
}

func TestSetSession(t *testing.T) {
	t.Parallel()

	t.Run("remember selects durable and clears ephemeral", func(t *testing.T) {
		t.Parallel()

		durable := authclient.NewMemoryStorage()
		ephemeral := authclient.NewMemoryStorage()
		require.NoError(t, ephemeral.Save(validPair(t)))

		controller, err := authclient.New(authclient.Config{BaseURL: "http://localhost"},
			authclient.WithDurableStorage(durable),
			authclient.WithEphemeralStorage(ephemeral))
		require.NoError(t, err)

		pair := validPair(t)
		require.NoError(t, controller.SetSession(pair, true))
		assert.Equal(t, authclient.StateAuthenticated, controller.State())

		saved, ok, err := durable.Load()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, pair.RefreshToken, saved.RefreshToken)

		_, ok, err = ephemeral.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("without remember selects ephemeral", func(t *testing.T) {
		t.Parallel()

		durable := authclient.NewMemoryStorage()
		ephemeral := authclient.NewMemoryStorage()

		controller, err := authclient.New(authclient.Config{BaseURL: "http://localhost"},
			authclient.WithDurableStorage(durable),
			authclient.WithEphemeralStorage(ephemeral))
		require.NoError(t, err)

		require.NoError(t, controller.SetSession(validPair(t), false))

		_, ok, err := durable.Load()
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = ephemeral.Load()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unverified email enters verification state", func(t *testing.T) {
		t.Parallel()

		_, controller := newTestSetup(t)
		pair := tokens.Pair{
			AccessToken:     mintAccess(t, false),
			RefreshToken:    "refresh-1",
			AccessExpiresAt: time.Now().Add(15 * time.Minute),
		}
		require.NoError(t, controller.SetSession(pair, false))
		assert.Equal(t, authclient.StateEmailVerificationRequired, controller.State())

		controller.MarkEmailVerified()
		assert.Equal(t, authclient.StateAuthenticated, controller.State())
	})
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()

		_, controller := newTestSetup(t)
		req, _ := http.NewRequest(http.MethodGet, "http://localhost/resource", nil)
		_, err := controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrNotAuthenticated)
	})

	t.Run("attaches bearer token", func(t *testing.T) {
		t.Parallel()

		server, controller := newTestSetup(t)
		pair := validPair(t)
		server.mu.Lock()
		server.accessToken = pair.AccessToken
		server.mu.Unlock()
		require.NoError(t, controller.SetSession(pair, false))

		req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
		resp, err := controller.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(0), server.refreshCalls.Load())
	})

	t.Run("refreshes and replays on expiry", func(t *testing.T) {
		t.Parallel()

		server, controller := newTestSetup(t)
		// The server does not know this access token, so the first
		// attempt earns TOKEN_EXPIRED.
		require.NoError(t, controller.SetSession(validPair(t), false))

		payload := []byte(`{"n":1}`)
		req, _ := http.NewRequest(http.MethodPost, server.url(t)+"/resource", bytes.NewReader(payload))
		resp, err := controller.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, `ok:{"n":1}`, string(body))
		assert.Equal(t, int64(1), server.refreshCalls.Load())
	})

	t.Run("refreshes on every token error code", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{"TOKEN_INVALID", "TOKEN_MISSING"} {
			t.Run(code, func(t *testing.T) {
				t.Parallel()

				server, controller := newTestSetup(t)
				server.mu.Lock()
				server.rejectCode = code
				server.mu.Unlock()
				require.NoError(t, controller.SetSession(validPair(t), false))

				req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
				resp, err := controller.Do(req)
				require.NoError(t, err)
				defer resp.Body.Close()

				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, int64(1), server.refreshCalls.Load())
			})
		}
	})

	t.Run("locally expired token refreshes before sending", func(t *testing.T) {
		t.Parallel()

		server, controller := newTestSetup(t)
		pair := validPair(t)
		pair.AccessExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, controller.SetSession(pair, false))

		req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
		resp, err := controller.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(1), server.refreshCalls.Load())
	})

	t.Run("rejected refresh ends the session", func(t *testing.T) {
		t.Parallel()

		server, controller := newTestSetup(t)
		pair := validPair(t)
		pair.RefreshToken = "not-the-one-the-server-knows"
		require.NoError(t, controller.SetSession(pair, false))

		req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
		_, err := controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrSessionExpired)
		// The error keeps the code the server originally answered with.
		assert.Contains(t, err.Error(), "TOKEN_EXPIRED")
		assert.Equal(t, authclient.StateUnauthenticated, controller.State())

		// The dead session is gone: the next call has nothing to send.
		req, _ = http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
		_, err = controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrNotAuthenticated)
	})

	t.Run("email not verified never refreshes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"code": "EMAIL_NOT_VERIFIED"})
		}))
		t.Cleanup(srv.Close)

		controller, err := authclient.New(authclient.Config{BaseURL: srv.URL})
		require.NoError(t, err)
		require.NoError(t, controller.SetSession(validPair(t), false))

		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/resource", nil)
		_, err = controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrEmailNotVerified)
		assert.Equal(t, authclient.StateEmailVerificationRequired, controller.State())
	})

	t.Run("concurrent expiries share one refresh", func(t *testing.T) {
		t.Parallel()

		server, controller := newTestSetup(t)
		server.refreshDelay = 50 * time.Millisecond
		pair := validPair(t)
		pair.AccessExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, controller.SetSession(pair, false))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
				resp, err := controller.Do(req)
				if err == nil {
					resp.Body.Close()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), server.refreshCalls.Load())
	})

	t.Run("refresh budget bounds retries", func(t *testing.T) {
		t.Parallel()

		server := &authServer{t: t, refreshToken: "refresh-1", rejectAll: true}
		srv := httptest.NewServer(server.handler())
		t.Cleanup(srv.Close)

		controller, err := authclient.New(authclient.Config{
			BaseURL:       srv.URL,
			RefreshBudget: 2,
			RefreshWindow: time.Hour,
		})
		require.NoError(t, err)
		require.NoError(t, controller.SetSession(validPair(t), false))

		// Every attempt earns TOKEN_EXPIRED, so each Do burns one
		// refresh from the budget until it runs out.
		for range 2 {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/resource", nil)
			resp, err := controller.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
		}

		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/resource", nil)
		_, err = controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrRefreshBudgetExceeded)
		assert.Equal(t, int64(2), server.refreshCalls.Load())

		// An exhausted budget ends the session instead of retrying it
		// forever.
		assert.Equal(t, authclient.StateUnauthenticated, controller.State())
		req, _ = http.NewRequest(http.MethodGet, srv.URL+"/resource", nil)
		_, err = controller.Do(req)
		assert.ErrorIs(t, err, authclient.ErrNotAuthenticated)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	server, controller := newTestSetup(t)
	require.NoError(t, controller.SetSession(validPair(t), true))

	require.NoError(t, controller.Logout(context.Background()))
	assert.Equal(t, authclient.StateUnauthenticated, controller.State())

	req, _ := http.NewRequest(http.MethodGet, server.url(t)+"/resource", nil)
	_, err := controller.Do(req)
	assert.ErrorIs(t, err, authclient.ErrNotAuthenticated)
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session", "tokens.json")
		storage := authclient.NewFileStorage(path)

		_, ok, err := storage.Load()
		require.NoError(t, err)
		assert.False(t, ok)

		pair := tokens.Pair{AccessToken: "a", RefreshToken: "r", AccessExpiresAt: time.Now().Add(time.Hour).UTC()}
		require.NoError(t, storage.Save(pair))

		loaded, ok, err := storage.Load()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, pair.AccessToken, loaded.AccessToken)
		assert.Equal(t, pair.RefreshToken, loaded.RefreshToken)

		require.NoError(t, storage.Clear())
		_, ok, err = storage.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt file reads as empty", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		storage := authclient.NewFileStorage(path)
		_, ok, err := storage.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
