// Package auth verifies the bearer tokens that identify API users.
//
// Tokens are HS256 JWTs. The subject claim is the user id that scopes every
// stored recipe.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenMissing is returned when no bearer token was supplied.
	ErrTokenMissing = errors.New("auth: token missing")
	// ErrTokenInvalid is returned for malformed, mis-signed or subject-less tokens.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Verifier checks and issues user tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier for secret. When issuer is non-empty tokens
// must carry a matching iss claim.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return v.secret, nil
}

// Verify validates token and returns its subject.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}

// Issue signs a token for userID. A zero ttl issues a token without expiry.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("auth: user id is required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   v.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
