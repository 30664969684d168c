package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simmonson/fib-worker/types"
)

func TestParseIndex(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"0", 0},
		{"7", 7},
		{"007", 7},
		{"10", 10},
		{"+5", 5},
		{"-3", -3},
		{"9223372036854775807", 9223372036854775807},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n, err := ParseIndex(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, n)
		})
	}
}

func TestParseIndex_Invalid(t *testing.T) {
	for _, text := range []string{
		"",
		"abc",
		"12abc",
		"1.5",
		" 7",
		"7\n",
		"0x10",
		"1e3",
		"9223372036854775808",
		"-",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseIndex(text)
			require.ErrorIs(t, err, types.ErrInvalidIndex)
			require.True(t, types.IsRejected(err))
		})
	}
}
