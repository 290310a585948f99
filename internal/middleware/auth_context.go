package middleware

import (
	"context"
	"net/http"
	"strings"

	"pawfect-match/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	// AuthCookie es la cookie que setea el front tras el login.
	AuthCookie = "auth_token"

	DebugUserHeader = "X-Debug-User-ID"
	DebugRoleHeader = "X-Debug-Role"
)

// AuthContext:
// - Si verifier != nil y viene token (Bearer o cookie) => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Role, default adopter) setea claims.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := Authenticate(r.Context(), verifier, r, TokenFromRequest(r))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Authenticate resuelve claims para un request. Lo comparte el upgrade de websocket.
// Token inválido => sin claims, no error: el handler decide 401/403.
func Authenticate(ctx context.Context, verifier auth.AuthVerifier, r *http.Request, token string) (auth.Claims, bool) {
	if verifier == nil {
		return DebugClaims(r)
	}
	if token == "" {
		return auth.Claims{}, false
	}
	claims, err := verifier.Verify(ctx, token)
	if err != nil {
		return auth.Claims{}, false
	}
	return claims, true
}

// DebugClaims lee la identidad de los headers de dev.
func DebugClaims(r *http.Request) (auth.Claims, bool) {
	uid := strings.TrimSpace(r.Header.Get(DebugUserHeader))
	if uid == "" {
		return auth.Claims{}, false
	}
	role, ok := auth.ParseRole(r.Header.Get(DebugRoleHeader))
	if !ok {
		role = auth.RoleAdopter
	}
	return auth.Claims{UserID: uid, Role: role}, true
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// TokenFromRequest: Authorization Bearer primero, después la cookie auth_token.
func TokenFromRequest(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
