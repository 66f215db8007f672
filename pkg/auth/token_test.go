package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/auth"
	"github.com/auxeira/realtime/pkg/gateway"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

func newAuthenticator(t *testing.T) *auth.TokenAuthenticator {
	t.Helper()
	a, err := auth.NewTokenAuthenticator(auth.Config{
		SigningKey: testSigningKey,
		Issuer:     "auxeira",
	})
	require.NoError(t, err)
	return a
}

func TestNewTokenAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("requires signing key", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewTokenAuthenticator(auth.Config{})
		assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
	})
}

func TestTokenAuthenticator_Verify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid token round trip", func(t *testing.T) {
		t.Parallel()

		a := newAuthenticator(t)
		token, err := a.Issue(gateway.Identity{UserID: "user-1", Role: gateway.RoleInvestor}, time.Hour)
		require.NoError(t, err)

		identity, err := a.Verify(ctx, gateway.Credentials{Token: token})
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.UserID)
		assert.Equal(t, gateway.RoleInvestor, identity.Role)
	})

	t.Run("missing role defaults to startup", func(t *testing.T) {
		t.Parallel()

		a := newAuthenticator(t)
		token, err := a.Issue(gateway.Identity{UserID: "user-2"}, time.Hour)
		require.NoError(t, err)

		identity, err := a.Verify(ctx, gateway.Credentials{Token: token})
		require.NoError(t, err)
		assert.Equal(t, gateway.RoleStartup, identity.Role)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		a := newAuthenticator(t)
		_, err := a.Verify(ctx, gateway.Credentials{})
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		a := newAuthenticator(t)
		_, err := a.Verify(ctx, gateway.Credentials{Token: "not.a.jwt"})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		a := newAuthenticator(t)

		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-3",
				Issuer:    "auxeira",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
		require.NoError(t, err)

		_, err = a.Verify(context.Background(), gateway.Credentials{Token: token})
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		t.Parallel()

		other, err := auth.NewTokenAuthenticator(auth.Config{SigningKey: "a-completely-different-key"})
		require.NoError(t, err)
		token, err := other.Issue(gateway.Identity{UserID: "user-4"}, time.Hour)
		require.NoError(t, err)

		a := newAuthenticator(t)
		_, err = a.Verify(ctx, gateway.Credentials{Token: token})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects unsigned algorithm", func(t *testing.T) {
		t.Parallel()

		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-5",
				Issuer:    "auxeira",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		a := newAuthenticator(t)
		_, err = a.Verify(ctx, gateway.Credentials{Token: token})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects missing subject", func(t *testing.T) {
		t.Parallel()

		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "auxeira",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
		require.NoError(t, err)

		a := newAuthenticator(t)
		_, err = a.Verify(ctx, gateway.Credentials{Token: token})
		assert.ErrorIs(t, err, auth.ErrMissingSubject)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		t.Parallel()

		other, err := auth.NewTokenAuthenticator(auth.Config{SigningKey: testSigningKey, Issuer: "someone-else"})
		require.NoError(t, err)
		token, err := other.Issue(gateway.Identity{UserID: "user-6"}, time.Hour)
		require.NoError(t, err)

		a := newAuthenticator(t)
		_, err = a.Verify(ctx, gateway.Credentials{Token: token})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
