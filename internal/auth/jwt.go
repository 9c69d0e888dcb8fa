// Package auth handles credentials and the session cookie.
//
// LOGIN FLOW:
//  1. POST /api/members/login with loginId + password
//  2. The member service verifies the bcrypt hash and creates a server-side
//     session (internal/session), getting back a session id
//  3. Sessions.Issue signs that id into a JWT and sets it as an HttpOnly
//     cookie
//  4. On later requests the middleware validates the JWT, resolves the
//     session id in the store, and puts the member id in the request context
//
// WHY SIGN A SERVER-SIDE SESSION ID?
// The store is the source of truth (logout and withdraw delete from it),
// but session ids are xids, which are unique rather than secret. Signing
// them means a client cannot forge or guess a valid cookie; the store
// lookup means a signed cookie stops working the moment its session ends.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "hometender"

// DefaultTokenLifetime caps how long one cookie stays usable regardless of
// activity. Idle expiry is the session store's job.
const DefaultTokenLifetime = 24 * time.Hour

// TokenService signs and verifies HS256 tokens whose subject is a session id.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a lifetime <= 0 selects DefaultTokenLifetime.
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for subject using the service's lifetime.
func (s *TokenService) Generate(subject string) (string, error) {
	return s.GenerateWithDuration(subject, s.lifetime)
}

// GenerateWithDuration signs a token that expires after d. Tests pass a
// negative d to get an already expired token.
func (s *TokenService) GenerateWithDuration(subject string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, issuer and expiry and returns the
// subject.
//
// jwt.WithValidMethods pins HS256 so a token with "alg": "none" or an
// asymmetric algorithm is rejected before the key is ever used.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
