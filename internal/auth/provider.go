// ABOUTME: Session token acquisition, caching and rotation for the socket and REST clients.
// ABOUTME: Fetches from the token endpoint with bounded retry; inspects JWT expiry without verifying.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	// ErrAuth means no token could be acquired and the endpoint requires one.
	ErrAuth = errors.New("authentication failed")
	// ErrNoEndpoint means no token endpoint is configured and no static token was provided.
	ErrNoEndpoint = errors.New("no token endpoint configured")
)

// TokenSource supplies the bearer token for socket and REST requests.
type TokenSource interface {
	// Token returns a usable token, fetching a fresh one if needed.
	Token(ctx context.Context) (string, error)
	// SetToken installs a rotated token pushed by the backend.
	SetToken(token string)
	// Invalidate discards the cached token so the next Token call refetches.
	Invalidate()
}

// StaticTokenSource returns a fixed token (env var or token file). Rotation
// replaces the value; Invalidate restores the original.
type StaticTokenSource struct {
	mu       sync.RWMutex
	original string
	current  string
}

// NewStaticTokenSource wraps a pre-provisioned token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{original: token, current: token}
}

// Token returns the current token. An empty token is not an error here; the
// endpoint may not require auth.
func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// SetToken installs a rotated token.
func (s *StaticTokenSource) SetToken(token string) {
	s.mu.Lock()
	s.current = token
	s.mu.Unlock()
}

// Invalidate falls back to the originally provisioned token.
func (s *StaticTokenSource) Invalidate() {
	s.mu.Lock()
	s.current = s.original
	s.mu.Unlock()
}

// HTTPProvider fetches short-lived tokens from an HTTP endpoint returning
// {"token": "..."}. The token endpoint may be transiently unavailable at
// boot, so fetch failures are retried a bounded number of times per call
// rather than treated as fatal.
type HTTPProvider struct {
	endpoint   string
	client     *http.Client
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	cached string
}

// HTTPProviderOptions tunes retry behavior.
type HTTPProviderOptions struct {
	Client     *http.Client
	Retries    int           // attempts beyond the first, default 2
	RetryDelay time.Duration // delay between attempts, default 1s
	Logger     *slog.Logger
}

// NewHTTPProvider creates a provider for the given token endpoint.
func NewHTTPProvider(endpoint string, opts HTTPProviderOptions) *HTTPProvider {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	retries := opts.Retries
	if retries == 0 {
		retries = 2
	}
	delay := opts.RetryDelay
	if delay == 0 {
		delay = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		endpoint:   endpoint,
		client:     client,
		retries:    retries,
		retryDelay: delay,
		logger:     logger.With("component", "auth"),
	}
}

// Token returns the cached token if still usable, otherwise fetches a fresh
// one. Returns ErrAuth when every attempt fails.
func (p *HTTPProvider) Token(ctx context.Context) (string, error) {
	if p.endpoint == "" {
		return "", ErrNoEndpoint
	}

	p.mu.Lock()
	cached := p.cached
	p.mu.Unlock()

	if cached != "" && !expired(cached) {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}

		token, err := p.fetch(ctx)
		if err == nil {
			p.mu.Lock()
			p.cached = token
			p.mu.Unlock()
			return token, nil
		}
		lastErr = err
		p.logger.Warn("token fetch failed", "attempt", attempt+1, "error", err)
	}

	return "", fmt.Errorf("%w: %v", ErrAuth, lastErr)
}

// SetToken installs a rotated token pushed over the socket.
func (p *HTTPProvider) SetToken(token string) {
	p.mu.Lock()
	p.cached = token
	p.mu.Unlock()
	p.logger.Debug("session token rotated")
}

// Invalidate discards the cached token, forcing a fresh fetch on the next
// connect attempt. Used on 401 signals.
func (p *HTTPProvider) Invalidate() {
	p.mu.Lock()
	p.cached = ""
	p.mu.Unlock()
	p.logger.Debug("session token invalidated")
}

func (p *HTTPProvider) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if payload.Token == "" {
		return "", errors.New("token endpoint returned empty token")
	}
	return payload.Token, nil
}

// expired inspects the token's exp claim without verifying the signature;
// the client does not hold the signing secret. Opaque (non-JWT) tokens and
// tokens without exp are treated as still valid.
func expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	// Refresh slightly before actual expiry so an in-flight connect doesn't
	// race the deadline.
	return time.Until(exp.Time) < 30*time.Second
}
