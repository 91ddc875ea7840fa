package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/pkg/statemachine"
	"github.com/dmitrymomot/authkit/pkg/tokens"
)

// Error codes from the auth server's wire contract that the controller
// reacts to.
const (
	codeTokenExpired     = "TOKEN_EXPIRED"
	codeTokenInvalid     = "TOKEN_INVALID"
	codeTokenMissing     = "TOKEN_MISSING"
	codeEmailNotVerified = "EMAIL_NOT_VERIFIED"
)

type errorEnvelope struct {
	Code string `json:"code"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithDurableStorage sets the durable token slot ("remember me").
func WithDurableStorage(storage TokenStorage) Option {
	return func(c *Controller) {
		if storage != nil {
			c.durable = storage
		}
	}
}

// WithEphemeralStorage sets the ephemeral token slot.
func WithEphemeralStorage(storage TokenStorage) Option {
	return func(c *Controller) {
		if storage != nil {
			c.ephemeral = storage
		}
	}
}

// Controller manages a client session against the auth server: it
// stores the token pair, attaches it to outgoing requests, refreshes
// once on expiry with all concurrent callers coalesced, and tracks the
// session state.
type Controller struct {
	cfg       Config
	http      *http.Client
	durable   TokenStorage
	ephemeral TokenStorage
	machine   *statemachine.Machine[State, Event]
	limiter   *ratelimiter.Limiter
	sf        singleflight.Group
	log       *slog.Logger

	mu       sync.Mutex
	pair     tokens.Pair
	hasPair  bool
	remember bool
}

// New creates a Controller. Both storage slots default to independent
// in-memory slots; pass WithDurableStorage(NewFileStorage(...)) to
// survive restarts.
func New(cfg Config, opts ...Option) (*Controller, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 10 * time.Second
	}
	if cfg.RefreshBudget <= 0 {
		cfg.RefreshBudget = 5
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limiter, err := ratelimiter.New(ratelimiter.Config{
		Limit:  cfg.RefreshBudget,
		Window: cfg.RefreshWindow,
	})
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		http:      http.DefaultClient,
		durable:   NewMemoryStorage(),
		ephemeral: NewMemoryStorage(),
		machine:   newSessionMachine(),
		limiter:   limiter,
		log:       logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current session state.
func (c *Controller) State() State {
	return c.machine.Current()
}

// Boot restores a persisted session. The durable slot wins over the
// ephemeral one. An access token that is locally known to be expired
// is never presented; the first request refreshes instead.
func (c *Controller) Boot(ctx context.Context) error {
	pair, ok, err := c.durable.Load()
	remember := true
	if err != nil {
		return fmt.Errorf("load durable slot: %w", err)
	}
	if !ok {
		pair, ok, err = c.ephemeral.Load()
		if err != nil {
			return fmt.Errorf("load ephemeral slot: %w", err)
		}
		remember = false
	}
	if !ok {
		c.machine.Set(StateUnauthenticated)
		return nil
	}

	// A stored access token that does not even parse is garbage, not a
	// session: drop it without a network call.
	claims, ok := peekClaims(pair.AccessToken)
	if !ok {
		if err := c.clearSession(); err != nil {
			return err
		}
		c.machine.Set(StateUnauthenticated)
		return nil
	}

	c.mu.Lock()
	c.pair, c.hasPair, c.remember = pair, true, remember
	c.mu.Unlock()

	if claims.EmailVerified {
		c.machine.Set(StateAuthenticated)
	} else {
		c.machine.Set(StateEmailVerificationRequired)
	}

	c.log.InfoContext(ctx, "session restored",
		slog.Bool("remember", remember),
		slog.String("state", string(c.machine.Current())))
	return nil
}

// SetSession installs a freshly issued pair, e.g. after login or
// signup. remember selects the durable slot; the other slot is cleared
// so the two never hold different pairs.
func (c *Controller) SetSession(pair tokens.Pair, remember bool) error {
	if err := c.persist(pair, remember); err != nil {
		return err
	}

	_, _ = c.machine.Fire(EventLogin)
	if claims, ok := peekClaims(pair.AccessToken); ok && !claims.EmailVerified {
		_, _ = c.machine.Fire(EventEmailUnverified)
	}
	return nil
}

// MarkEmailVerified moves the session out of the verification-required
// state after the application learns the email was confirmed. The next
// refresh mints an access token carrying the updated claim.
func (c *Controller) MarkEmailVerified() {
	_, _ = c.machine.Fire(EventEmailVerified)
}

// Logout revokes the refresh token server-side (best effort) and
// clears both slots.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.pair.RefreshToken
	c.mu.Unlock()

	if refresh != "" {
		body, _ := json.Marshal(map[string]string{"refresh_token": refresh})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/logout", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
			if resp, err := c.http.Do(req); err == nil {
				io.Copy(io.Discard, resp.Body) //nolint:errcheck
				resp.Body.Close()
			} else {
				c.log.WarnContext(ctx, "logout request failed", logger.Error(err))
			}
		}
	}

	if err := c.clearSession(); err != nil {
		return err
	}
	_, _ = c.machine.Fire(EventLogout)
	return nil
}

// Do sends an authenticated request. On a token error response
// (TOKEN_EXPIRED, TOKEN_INVALID, TOKEN_MISSING) it refreshes the
// session (one refresh per burst, shared by concurrent callers) and
// replays the request once. EMAIL_NOT_VERIFIED never triggers a
// refresh: the token is valid, the account is not.
func (c *Controller) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	c.mu.Lock()
	pair, ok := c.pair, c.hasPair
	c.mu.Unlock()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	// Never present a token known to be expired.
	if !pair.AccessExpiresAt.IsZero() && time.Now().After(pair.AccessExpiresAt) {
		refreshed, err := c.refresh(ctx, pair)
		if err != nil {
			return nil, err
		}
		pair = refreshed
	}

	resp, err := c.send(req, pair.AccessToken)
	if err != nil {
		return nil, err
	}

	code := c.errorCode(resp)
	switch code {
	case codeEmailNotVerified:
		_, _ = c.machine.Fire(EventEmailUnverified)
		return nil, ErrEmailNotVerified
	case codeTokenExpired, codeTokenInvalid, codeTokenMissing:
		refreshed, err := c.refresh(ctx, pair)
		if err != nil {
			return nil, fmt.Errorf("request rejected with %s: %w", code, err)
		}
		replay, err := cloneRequest(req)
		if err != nil {
			return nil, err
		}
		return c.send(replay, refreshed.AccessToken)
	default:
		return resp, nil
	}
}

func (c *Controller) send(req *http.Request, accessToken string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// errorCode extracts the stable error code from a 401/403 response.
// The body is re-attached so unrecognized responses stay readable by
// the caller. Other statuses pass through untouched with "".
func (c *Controller) errorCode(resp *http.Response) string {
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var envelope errorEnvelope
	if err == nil {
		_ = json.Unmarshal(body, &envelope)
	}
	return envelope.Code
}

// cloneRequest rebuilds the request for one replay. Requests with a
// consumed body need GetBody; without it the replay cannot be safe.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		if req.Body != nil {
			return nil, fmt.Errorf("authclient: request body is not replayable")
		}
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("reread request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// refresh rotates the token pair. Concurrent callers share one flight;
// the budget bounds how many flights a window may start. The refresh
// round trip runs under its own timeout, detached from the caller's
// deadline, so a canceled request does not strand the rotation halfway.
func (c *Controller) refresh(ctx context.Context, seen tokens.Pair) (tokens.Pair, error) {
	result, err, _ := c.sf.Do("refresh", func() (any, error) {
		c.mu.Lock()
		current := c.pair
		refreshToken := c.pair.RefreshToken
		remember := c.remember
		c.mu.Unlock()
		if refreshToken == "" {
			return tokens.Pair{}, ErrNotAuthenticated
		}
		// Another flight may have rotated the pair between the caller
		// observing the failure and this flight starting.
		if current.RefreshToken != seen.RefreshToken {
			return current, nil
		}

		if res := c.limiter.Allow("refresh"); !res.Allowed {
			// The session is stuck in a refresh loop; stop feeding it.
			_ = c.clearSession()
			_, _ = c.machine.Fire(EventSessionExpired)
			return tokens.Pair{}, fmt.Errorf("%w: retry after %s", ErrRefreshBudgetExceeded, res.RetryAfter())
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
		defer cancel()

		pair, err := c.requestRefresh(refreshCtx, refreshToken)
		if err != nil {
			return tokens.Pair{}, err
		}
		if err := c.persist(pair, remember); err != nil {
			return tokens.Pair{}, err
		}

		c.log.InfoContext(ctx, "session refreshed")
		return pair, nil
	})
	if err != nil {
		return tokens.Pair{}, err
	}
	return result.(tokens.Pair), nil
}

func (c *Controller) requestRefresh(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	payload, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The refresh token was rejected: the session is gone and both
		// slots must forget it.
		_ = c.clearSession()
		_, _ = c.machine.Fire(EventSessionExpired)
		return tokens.Pair{}, ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return tokens.Pair{}, fmt.Errorf("refresh returned %s", resp.Status)
	}

	var pair tokens.Pair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return tokens.Pair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	return pair, nil
}

// persist writes the pair to the selected slot and clears the other,
// keeping the invariant that the slots never disagree.
func (c *Controller) persist(pair tokens.Pair, remember bool) error {
	if remember {
		if err := c.durable.Save(pair); err != nil {
			return fmt.Errorf("save durable slot: %w", err)
		}
		if err := c.ephemeral.Clear(); err != nil {
			return fmt.Errorf("clear ephemeral slot: %w", err)
		}
	} else {
		if err := c.ephemeral.Save(pair); err != nil {
			return fmt.Errorf("save ephemeral slot: %w", err)
		}
		if err := c.durable.Clear(); err != nil {
			return fmt.Errorf("clear durable slot: %w", err)
		}
	}

	c.mu.Lock()
	c.pair, c.hasPair, c.remember = pair, true, remember
	c.mu.Unlock()
	return nil
}

func (c *Controller) clearSession() error {
	c.mu.Lock()
	c.pair, c.hasPair, c.remember = tokens.Pair{}, false, false
	c.mu.Unlock()

	if err := c.durable.Clear(); err != nil {
		return fmt.Errorf("clear durable slot: %w", err)
	}
	if err := c.ephemeral.Clear(); err != nil {
		return fmt.Errorf("clear ephemeral slot: %w", err)
	}
	return nil
}

// peekClaims decodes the access token's claims without checking the
// signature. Good enough for local structure checks and state hints;
// the server remains the authority.
func peekClaims(accessToken string) (tokens.AccessClaims, bool) {
	var claims tokens.AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return tokens.AccessClaims{}, false
	}
	return claims, true
}
