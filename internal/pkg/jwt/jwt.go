// Package jwt issues and verifies the session credentials handed to
// clients after a successful verification or login. Callers treat the
// token as opaque; only this package knows it is an HS512 JWT.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod reports a token signed with an unexpected algorithm.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort reports an HS512 key below 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired reports a token past its expiry claim.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken reports a token that parsed but failed validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT is the credential contract used by the auth module.
type JWT interface {
	Generate(uid int64, email string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

// Claims carries the registered claims plus the authenticated user.
type Claims struct {
	jwt.RegisteredClaims

	// UserID serializes as a string so JavaScript clients do not lose
	// precision on snowflake ids.
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config is the input for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	Issuer string
	// Audiences are accepted on verification and all stamped on
	// generated tokens.
	Audiences []string
	// TTLMinutes is the token lifetime.
	TTLMinutes time.Duration
	// Clock is the time source for the issued-at and expiry claims.
	Clock clocker
	// UUID mints the token ID claim.
	UUID generator
}
