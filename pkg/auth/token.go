package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auxeira/realtime/pkg/gateway"
)

// Config holds token verification settings. The signing key must match the
// key the account service signs access tokens with.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"auxeira"`
	Leeway     time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}

// Claims are the access-token claims the realtime service cares about. The
// subject carries the user id; Role gates room access.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TokenAuthenticator verifies HMAC-signed bearer tokens and implements
// gateway.Authenticator.
type TokenAuthenticator struct {
	signingKey []byte
	issuer     string
	parser     *jwt.Parser
}

// NewTokenAuthenticator creates a token authenticator from config.
func NewTokenAuthenticator(cfg Config) (*TokenAuthenticator, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}

	return &TokenAuthenticator{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		parser:     jwt.NewParser(parserOpts...),
	}, nil
}

// Verify parses and validates the bearer token, returning the identity it
// asserts.
func (a *TokenAuthenticator) Verify(ctx context.Context, creds gateway.Credentials) (gateway.Identity, error) {
	if creds.Token == "" {
		return gateway.Identity{}, ErrMissingToken
	}

	var claims Claims
	_, err := a.parser.ParseWithClaims(creds.Token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedSigningMethod, t.Method.Alg())
		}
		return a.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return gateway.Identity{}, ErrExpiredToken
		}
		return gateway.Identity{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return gateway.Identity{}, ErrMissingSubject
	}

	role := claims.Role
	if role == "" {
		role = gateway.RoleStartup
	}

	return gateway.Identity{
		UserID: claims.Subject,
		Role:   role,
	}, nil
}

// Issue signs an access token for the given identity. Used by tests and
// local tooling; production tokens come from the account service.
func (a *TokenAuthenticator) Issue(identity gateway.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: identity.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
}
