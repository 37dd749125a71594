// Package hash verifies secrets without ever holding them in a
// recoverable form. Bcrypt covers passwords, HMAC-SHA256 covers the
// one-time codes where the comparison must be cheap and keyed.
package hash

// Hash is the contract use cases depend on: derive a hash from a
// plaintext and check a plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
