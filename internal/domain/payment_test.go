package domain

import "testing"

func TestToKobo_RoundsFloatDrift(t *testing.T) {
	t.Parallel()

	// 19.90 is not exactly representable; truncation would lose a kobo.
	cases := []struct {
		naira float64
		kobo  int64
	}{
		{19.90, 1990},
		{3500, 350000},
		{0.01, 1},
		{1234.56, 123456},
	}
	for _, tc := range cases {
		if got := ToKobo(tc.naira); got != tc.kobo {
			t.Errorf("ToKobo(%v) = %d, want %d", tc.naira, got, tc.kobo)
		}
		if back := FromKobo(tc.kobo); back != tc.naira {
			t.Errorf("FromKobo(%d) = %v, want %v", tc.kobo, back, tc.naira)
		}
	}
}
