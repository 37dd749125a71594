package otp

import "testing"

func TestNumericGenerate(t *testing.T) {

	t.Run("Format", func(t *testing.T) {

		// Arrange
		g := NewNumeric()

		// Act
		code, err := g.Generate()

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !IsWellFormed(code) {
			t.Fatalf("expected %d decimal digits, got %q", Length, code)
		}
	})

	t.Run("DigitsUniform", func(t *testing.T) {

		// Arrange
		g := NewNumeric()
		counts := make(map[byte]int)
		const draws = 2000

		// Act
		for range draws {
			code, err := g.Generate()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			for i := range len(code) {
				counts[code[i]]++
			}
		}

		// Assert
		// Each digit should land near draws*Length/10; a 30% band is
		// far looser than statistical noise allows, so only a real bias
		// in the sampler trips it.
		expected := draws * Length / 10
		for d := byte('0'); d <= '9'; d++ {
			if counts[d] < expected*7/10 || counts[d] > expected*13/10 {
				t.Fatalf("digit %c appeared %d times, expected around %d", d, counts[d], expected)
			}
		}
	})

	t.Run("DigitsVary", func(t *testing.T) {

		// Arrange
		g := NewNumeric()
		seen := make(map[string]struct{})

		// Act
		for range 50 {
			code, err := g.Generate()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			seen[code] = struct{}{}
		}

		// Assert
		// Collisions among 50 draws from a million values are possible
		// but a constant output is not.
		if len(seen) < 2 {
			t.Fatalf("expected varying codes, got %d distinct values", len(seen))
		}
	})
}

func TestIsWellFormed(t *testing.T) {
	cases := []struct {
		name string
		code string
		want bool
	}{
		{name: "Valid", code: "048291", want: true},
		{name: "TooShort", code: "12345", want: false},
		{name: "TooLong", code: "1234567", want: false},
		{name: "Empty", code: "", want: false},
		{name: "Letters", code: "12ab56", want: false},
		{name: "Unicode", code: "１２３４５６", want: false},
		{name: "Spaces", code: " 12345", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsWellFormed(tc.code); got != tc.want {
				t.Fatalf("IsWellFormed(%q) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}
