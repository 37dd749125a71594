package instrument

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {

	t.Run("NilConfig", func(t *testing.T) {

		// Act
		ins, err := New(context.Background(), nil)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ins.Tracer("t") == nil || ins.Meter("m") == nil {
			t.Fatalf("expected noop tracer and meter")
		}
		if err := ins.Shutdown(context.Background()); err != nil {
			t.Fatalf("expected no error on shutdown, got %v", err)
		}
	})

	t.Run("Disabled", func(t *testing.T) {

		// Act
		ins, err := New(context.Background(), &Config{Enabled: false, ServiceName: "verimail"})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ins.Tracer("t") == nil {
			t.Fatalf("expected noop tracer")
		}
	})
}

func TestClampRatio(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0.25, 0.25},
		{1.5, 1},
	}

	for _, tc := range cases {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
