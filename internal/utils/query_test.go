package utils

import "testing"

func TestIntParam(t *testing.T) {
	cases := map[string]struct {
		raw      string
		fallback int
		want     int
	}{
		"missing":       {"", 20, 20},
		"plain":         {"3", 1, 3},
		"negative":      {"-2", 1, -2},
		"leading zeros": {"007", 1, 7},
		"padded":        {" 12 ", 1, 12},
		"word":          {"two", 1, 1},
		"decimal":       {"2.5", 1, 1},
		"overflow":      {"99999999999999999999", 6, 6},
	}
	for name, tc := range cases {
		if got := IntParam(tc.raw, tc.fallback); got != tc.want {
			t.Errorf("%s: IntParam(%q, %d) = %d, want %d", name, tc.raw, tc.fallback, got, tc.want)
		}
	}
}
