package jwtverifier

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawfect-match/internal/platform/apperr"
	"pawfect-match/internal/ports/auth"
)

func TestVerify_RoundTrip(t *testing.T) {
	v := New("s3cret", "pawfect")

	token, err := v.Sign(auth.Claims{UserID: "owner-1", Role: auth.RoleOwner, Email: "spa@refuge.ch"}, time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.UserID)
	assert.Equal(t, auth.RoleOwner, claims.Role)
	assert.Equal(t, "spa@refuge.ch", claims.Email)
}

func TestVerify_Rejections(t *testing.T) {
	v := New("s3cret", "pawfect")
	ctx := context.Background()

	expired, err := v.Sign(auth.Claims{UserID: "u-1", Role: auth.RoleAdopter}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := New("other", "pawfect").Sign(auth.Claims{UserID: "u-1", Role: auth.RoleAdopter}, time.Minute)
	require.NoError(t, err)

	otherIssuer, err := New("s3cret", "someone-else").Sign(auth.Claims{UserID: "u-1", Role: auth.RoleAdopter}, time.Minute)
	require.NoError(t, err)

	badRole, err := v.Sign(auth.Claims{UserID: "u-1", Role: "vet"}, time.Minute)
	require.NoError(t, err)

	noSubject, err := v.Sign(auth.Claims{Role: auth.RoleAdopter}, time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "root"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"other key":    otherKey,
		"other issuer": otherIssuer,
		"bad role":     badRole,
		"no subject":   noSubject,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, token)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}
