package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt is the password hasher. The pepper is a config-held secret
// appended to the plaintext before hashing, so a database dump alone
// is not enough to mount an offline attack.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt builds a bcrypt hasher with the given work factor.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
