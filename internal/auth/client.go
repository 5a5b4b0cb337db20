package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

var authTracer = otel.Tracer("devcraft.internal.auth")

// ErrInvalidCredentials is returned when the provider rejects a
// sign-in or sign-up attempt.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Client talks to the external identity provider's REST API. It holds
// the current access token, so one client maps to one visitor session.
// It implements session.Fetcher.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *SessionStore
	logger     *logging.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient creates an identity provider client.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithSessionCache attaches a cache consulted before the provider on
// session lookups. Cache failures degrade to a provider round trip.
func (c *Client) WithSessionCache(store *SessionStore) *Client {
	c.cache = store
	return c
}

type providerUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type providerSession struct {
	AccessToken string       `json:"access_token"`
	User        providerUser `json:"user"`
}

func (u providerUser) toSession() session.Session {
	name := strings.TrimSpace(u.UserMetadata["full_name"])
	if name == "" {
		name = u.Email
	}
	return session.Session{
		Authenticated: true,
		UserID:        u.ID,
		DisplayName:   name,
		Email:         u.Email,
	}
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (session.Session, error) {
	ctx, span := authTracer.Start(ctx, "auth.sign_up")
	defer span.End()

	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": name},
	}
	var resp providerSession
	if err := c.post(ctx, "/auth/v1/signup", "", payload, &resp); err != nil {
		return session.Anonymous(), err
	}
	c.setToken(resp.AccessToken)
	return resp.User.toSession(), nil
}

// SignIn exchanges credentials for an access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	ctx, span := authTracer.Start(ctx, "auth.sign_in")
	defer span.End()

	payload := map[string]any{"email": email, "password": password}
	var resp providerSession
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", payload, &resp); err != nil {
		return session.Anonymous(), err
	}
	c.setToken(resp.AccessToken)
	return resp.User.toSession(), nil
}

// SignOut revokes the current token. The local session is cleared even
// if the provider call fails.
func (c *Client) SignOut(ctx context.Context) error {
	ctx, span := authTracer.Start(ctx, "auth.sign_out")
	defer span.End()

	token := c.Token()
	c.setToken("")
	if token == "" {
		return nil
	}
	if err := c.post(ctx, "/auth/v1/logout", token, nil, nil); err != nil {
		c.logger.Warn("sign-out revocation failed", "error", err)
		return fmt.Errorf("auth: sign out: %w", err)
	}
	return nil
}

// CurrentSession implements session.Fetcher: it resolves the stored
// token to a session. Without a token it reports anonymous, not an
// error.
func (c *Client) CurrentSession(ctx context.Context) (session.Session, error) {
	token := c.Token()
	if token == "" {
		return session.Anonymous(), nil
	}

	if c.cache != nil {
		cached, found, err := c.cache.Load(ctx, token)
		if err != nil {
			c.logger.Warn("session cache read failed", "error", err)
		} else if found {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return session.Anonymous(), fmt.Errorf("auth: user request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Anonymous(), fmt.Errorf("auth: user lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Stale token; drop it and report anonymous.
		c.setToken("")
		return session.Anonymous(), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return session.Anonymous(), fmt.Errorf("auth: user lookup status %d: %s", resp.StatusCode, string(body))
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return session.Anonymous(), fmt.Errorf("auth: decode user: %w", err)
	}
	sess := user.toSession()
	if c.cache != nil {
		if err := c.cache.Save(ctx, token, sess); err != nil {
			c.logger.Warn("session cache write failed", "error", err)
		}
	}
	return sess, nil
}

// Token returns the current access token, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, path, bearer string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("auth: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("auth: build request: %w", err)
	}
	c.setHeaders(req, bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: provider http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		return ErrInvalidCredentials
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth: provider status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("auth: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}
