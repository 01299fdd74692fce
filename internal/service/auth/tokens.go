package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

const (
	purposeSession   = "session"
	purposeMagicLink = "magic-link"
)

// Claims are carried by both session and magic-link tokens; Purpose keeps the
// two from being interchangeable.
type Claims struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates the HS256 tokens used for sessions and
// magic links.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	magicTTL   time.Duration
}

// NewTokenIssuer builds an issuer with the given signing secret and lifetimes.
func NewTokenIssuer(secret string, sessionTTL, magicTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		magicTTL:   magicTTL,
	}
}

// IssueSession signs a session token for the profile.
func (t *TokenIssuer) IssueSession(profile models.Profile) (string, time.Time, error) {
	expiresAt := time.Now().Add(t.sessionTTL)
	claims := Claims{
		Email:   profile.Email,
		Role:    profile.Role,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.UID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueMagicLink signs a short-lived passwordless sign-in token.
func (t *TokenIssuer) IssueMagicLink(uid, email string) (string, error) {
	claims := Claims{
		Email:   email,
		Purpose: purposeMagicLink,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.magicTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign magic-link token: %w", err)
	}
	return signed, nil
}

// ParseSession validates a session token and returns its claims.
func (t *TokenIssuer) ParseSession(token string) (*Claims, error) {
	return t.parse(token, purposeSession)
}

// ParseMagicLink validates a magic-link token and returns its claims.
func (t *TokenIssuer) ParseMagicLink(token string) (*Claims, error) {
	return t.parse(token, purposeMagicLink)
}

func (t *TokenIssuer) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q not accepted here", claims.Purpose)
	}
	return claims, nil
}
