package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDiscount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"0", 0},
		{"15", 15},
		{"100", 100},
		{"150", 100},
		{"-5", 0},
		{"abc", 0},
		{"", 0},
		{"12.5", 12.5},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, ParseDiscount(tc.raw), 0.0001, "raw=%q", tc.raw)
	}
}
