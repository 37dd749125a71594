package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/pkg/uid"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newSymmetric(t *testing.T, clk clocker) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:     []byte(testSecret),
		Issuer:     "verimail-test",
		Audiences:  []string{"verimail"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return j
}

func TestNewHS512(t *testing.T) {

	t.Run("ShortSecret", func(t *testing.T) {

		// Act
		_, err := NewHS512(Config{Secret: []byte("too-short")})

		// Assert
		if !errors.Is(err, ErrSigningKeyTooShort) {
			t.Fatalf("expected signing key too short, got %v", err)
		}
	})
}

func TestGenerateAndVerify(t *testing.T) {
	now := time.Now()

	t.Run("RoundTrip", func(t *testing.T) {

		// Arrange
		j := newSymmetric(t, &fixedClock{now: now})

		// Act
		token, err := j.Generate(42, "ana@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		claims, err := j.Verify(token)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if claims.UserID != 42 || claims.UserEmail != "ana@example.com" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		if claims.Issuer != "verimail-test" || claims.Subject != "42" {
			t.Fatalf("unexpected registered claims: %+v", claims.RegisteredClaims)
		}
	})

	t.Run("FixedPastClock", func(t *testing.T) {

		// Arrange
		past := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
		j := newSymmetric(t, &fixedClock{now: past})

		// Act
		token, err := j.Generate(7, "leo@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err = j.Verify(token)

		// Assert: expiry is judged by the configured clock, so a token
		// stamped years ago is still valid under the clock that issued it.
		if err != nil {
			t.Fatalf("expected token valid under the issuing clock, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {

		// Arrange
		issuer := newSymmetric(t, &fixedClock{now: now.Add(-time.Hour)})
		verifier := newSymmetric(t, &fixedClock{now: now})

		// Act
		token, err := issuer.Generate(42, "ana@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err = verifier.Verify(token)

		// Assert
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected token expired, got %v", err)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {

		// Arrange
		j := newSymmetric(t, &fixedClock{now: now})
		other, err := NewHS512(Config{
			Secret:     []byte("fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"),
			Issuer:     "verimail-test",
			Audiences:  []string{"verimail"},
			TTLMinutes: 15 * time.Minute,
			Clock:      &fixedClock{now: now},
			UUID:       uid.NewUUID(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Act
		token, err := j.Generate(42, "ana@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err = other.Verify(token)

		// Assert
		if err == nil {
			t.Fatalf("expected verification to fail with a different secret")
		}
	})

	t.Run("Garbage", func(t *testing.T) {

		// Arrange
		j := newSymmetric(t, &fixedClock{now: now})

		// Act
		_, err := j.Verify("not.a.token")

		// Assert
		if err == nil {
			t.Fatalf("expected verification to fail for a malformed token")
		}
	})
}
