package mathx

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if got := Clamp(150.0, 0, 100); got != 100 {
		t.Errorf("Clamp high = %g", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Errorf("Clamp low = %d", got)
	}
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp inside = %d", got)
	}
	if got := Clamp(uint32(70000), 0, 65535); got != 65535 {
		t.Errorf("Clamp uint32 = %d", got)
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		v, lo, hi int
		want      bool
	}{
		{1, 1, 4, true},
		{4, 1, 4, true},
		{0, 1, 4, false},
		{5, 1, 4, false},
		{2, 4, 1, false},
	}
	for _, tt := range tests {
		if got := Between(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Between(%d, %d, %d) = %v", tt.v, tt.lo, tt.hi, got)
		}
	}
	if Between(math.NaN(), 0, 100) {
		t.Error("NaN should be outside every range")
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := map[float64]float64{
		17999.5: 18000,
		0.5:     1,
		1.49:    1,
		-0.5:    0,
		-1.5:    -1,
		2.5:     3,
	}
	for in, want := range tests {
		if got := RoundHalfUp(in); got != want {
			t.Errorf("RoundHalfUp(%g) = %g, want %g", in, got, want)
		}
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(7.5, 2); got != 7.5 {
		t.Errorf("RoundTo(7.5, 2) = %g", got)
	}
	if got := RoundTo(6.6666666, 2); got != 6.67 {
		t.Errorf("RoundTo(6.666, 2) = %g", got)
	}
	if got := RoundTo(float32(1.234), 1); got != float32(1.2) {
		t.Errorf("RoundTo float32 = %g", got)
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(5.0, 10.0, 0.5); got != 7.5 {
		t.Errorf("Lerp = %g", got)
	}
	if got := Lerp(5.0, 10.0, 0); got != 5 {
		t.Errorf("Lerp at 0 = %g", got)
	}
}
