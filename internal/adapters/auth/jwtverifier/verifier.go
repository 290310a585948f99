package jwtverifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Claims del access token. sub = id del usuario.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con tokens HS256 firmados con un secreto compartido.
type Verifier struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer)}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, ErrTokenEmpty)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Claims{}, fmt.Errorf("%w: token has expired", apperr.ErrUnauthorized)
		}
		return auth.Claims{}, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}

	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, fmt.Errorf("%w: invalid token claims", apperr.ErrUnauthorized)
	}

	sub := strings.TrimSpace(c.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: token missing subject", apperr.ErrUnauthorized)
	}
	role, ok := auth.ParseRole(c.Role)
	if !ok {
		return auth.Claims{}, fmt.Errorf("%w: unknown role %q", apperr.ErrUnauthorized, c.Role)
	}

	return auth.Claims{UserID: sub, Role: role, Email: strings.TrimSpace(c.Email)}, nil
}

// Sign emite un token; lo usan los tests y el tooling de dev.
func (v *Verifier) Sign(claims auth.Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:  string(claims.Role),
		Email: claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString(v.secret)
}
