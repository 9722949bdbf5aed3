package utils

import "testing"

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		x, lo, hi float32
		want      float32
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -0.2, 0, 1, 0},
		{"above", 1.7, 0, 1, 1},
		{"at low edge", 0, 0, 1, 0},
		{"at high edge", 1, 0, 1, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Clamp(tt.x, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestRoundU8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x    float32
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 128},
		{-3, 0},
		{2, 255},
	}

	for _, tt := range tests {
		if got := RoundU8(tt.x); got != tt.want {
			t.Errorf("RoundU8(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestRoundN(t *testing.T) {
	t.Parallel()

	if got := RoundN(1, 31); got != 31 {
		t.Errorf("RoundN(1, 31) = %d, want 31", got)
	}
	if got := RoundN(0.5, 63); got != 32 {
		t.Errorf("RoundN(0.5, 63) = %d, want 32", got)
	}
	if got := RoundN(-1, 31); got != 0 {
		t.Errorf("RoundN(-1, 31) = %d, want 0", got)
	}
}
