// Package auth signs and verifies the optional API bearer tokens and
// fingerprints caller inference tokens for the run history.
// Leaf package with no domain dependencies.
package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

// DefaultJWTExpiry applies when an Issuer is built with a zero expiry.
const DefaultJWTExpiry = 24 * time.Hour

// ErrEmptySecret is returned when an Issuer is created without a secret.
var ErrEmptySecret = errors.New("auth: jwt secret is empty")

// ===== JWT =====

// Claims are the registered claims; Subject names who the token was minted for.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 tokens with one shared secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A zero expiry falls back to DefaultJWTExpiry.
func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if expiry <= 0 {
		expiry = DefaultJWTExpiry
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// GenerateJWT signs a token for subject.
func (i *Issuer) GenerateJWT(subject string) (string, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// ParseJWT validates a token and returns its claims.
func (i *Issuer) ParseJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// reject anything but HMAC so a crafted "none" or RSA header is refused
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT claims or signature")
	}
	return claims, nil
}

// ===== TOKEN FINGERPRINTS =====

// TokenFingerprint returns a short keyed BLAKE2b digest of token, stable for
// a given key, so runs by the same caller can be grouped without storing the
// token. An empty token yields "".
func TokenFingerprint(key []byte, token string) string {
	if token == "" {
		return ""
	}
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New(16, key)
	if err != nil {
		// only reachable with an oversized key, trimmed above
		panic(err)
	}
	h.Write([]byte(token)) //nolint:errcheck // hash writes never fail
	return hex.EncodeToString(h.Sum(nil))
}
