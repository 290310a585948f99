package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/platform/httpclient"
	"pawfect-match/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("introspection client not configured")
	ErrUpstream      = errors.New("introspection upstream error")
)

// Config del endpoint de introspección (servicio de identidad externo).
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	// Path del endpoint; default /v1/tokens/verify.
	VerifyPath string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	verifyPath   string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	path := strings.TrimSpace(cfg.VerifyPath)
	if path == "" {
		path = "/v1/tokens/verify"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}
	hc.UserAgent = "PawfectMatch/1.0"
	// 5xx del IdP: un reintento corto
	hc.Retries = 1

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		verifyPath:   path,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

// VerifyToken manda el token al IdP y traduce la respuesta a claims.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, c.verifyPath, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, fmt.Errorf("%w: token rejected", apperr.ErrUnauthorized)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	userID := strings.TrimSpace(out.UserID)
	if userID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}
	role, ok := auth.ParseRole(out.Role)
	if !ok {
		return auth.Claims{}, fmt.Errorf("%w: unknown role %q", apperr.ErrUnauthorized, out.Role)
	}

	return auth.Claims{
		UserID: userID,
		Role:   role,
		Email:  strings.TrimSpace(out.Email),
	}, nil
}
