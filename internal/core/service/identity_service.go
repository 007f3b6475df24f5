package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krush/market-core/internal/core/domain"
)

// Claims is the payload carried by credentials issued at login.
type Claims struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenResolver verifies HS256-signed credentials. It holds no mutable state
// and is safe for concurrent use.
type TokenResolver struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenResolver returns a resolver that accepts tokens signed with secret.
// Tokens without an expiry are rejected.
func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// Resolve returns the actor embedded in credential, or false on any failure.
func (r *TokenResolver) Resolve(credential string) (domain.Actor, bool) {
	if credential == "" {
		return domain.Actor{}, false
	}

	claims := &Claims{}
	tkn, err := r.parser.ParseWithClaims(credential, claims, func(*jwt.Token) (interface{}, error) {
		return r.secret, nil
	})
	if err != nil || !tkn.Valid || claims.ID == "" {
		return domain.Actor{}, false
	}

	return domain.Actor{ID: claims.ID, Handle: claims.UserID, Email: claims.Email}, true
}

// Sign issues a credential for actor. Issuance belongs to the auth service;
// this exists for tooling and tests that need a valid token.
func (r *TokenResolver) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	if actor.ID == "" {
		return "", errors.New("sign: actor id is required")
	}
	now := time.Now()
	claims := Claims{
		ID:     actor.ID,
		UserID: actor.Handle,
		Email:  actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
