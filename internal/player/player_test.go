package player

import (
	"math"
	"testing"
)

func TestFormatTime(t *testing.T) {
	cases := map[float64]string{
		0:           "0:00",
		5.9:         "0:05",
		60:          "1:00",
		125.4:       "2:05",
		3600:        "60:00",
		-3:          "0:00",
		math.NaN():  "0:00",
		math.Inf(1): "0:00",
	}
	for in, want := range cases {
		if got := FormatTime(in); got != want {
			t.Errorf("FormatTime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestGain(t *testing.T) {
	cases := []struct {
		volume int
		want   float64
	}{
		{50, 0.5},
		{0, 0},
		{100, 1},
		{150, 1},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := (Track{Volume: tc.volume}).Gain(); got != tc.want {
			t.Errorf("Gain(%d) = %v, want %v", tc.volume, got, tc.want)
		}
	}
}
