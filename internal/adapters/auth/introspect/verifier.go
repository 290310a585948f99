package introspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier delegando en el IdP.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, ErrTokenEmpty)
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("introspect verify failed: %w", err)
	}
	return claims, nil
}
