package otp

import "crypto/rand"

// Length is the number of decimal digits in a generated code.
const Length = 6

// Generator produces fixed-length numeric one-time codes.
type Generator interface {
	// Generate returns a new Length-digit decimal code.
	Generate() (string, error)
}

// Numeric draws each digit independently from crypto/rand.
type Numeric struct{}

// NewNumeric returns a Numeric generator.
func NewNumeric() *Numeric {
	return &Numeric{}
}

// Generate returns a Length-digit decimal string. Source bytes are
// rejection sampled; bytes >= 250 are discarded so every digit is uniform.
func (g *Numeric) Generate() (string, error) {
	code := make([]byte, 0, Length)
	buf := make([]byte, Length)

	for len(code) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			code = append(code, '0'+b%10)
			if len(code) == Length {
				break
			}
		}
	}

	return string(code), nil
}

// IsWellFormed reports whether code is exactly Length ASCII decimal digits.
func IsWellFormed(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
