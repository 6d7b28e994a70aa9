package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want *float64
	}{
		{"$1,234.50", ptr(1234.5)},
		{" 3.2 ", ptr(3.2)},
		{"26%", ptr(26.0)},
		{"N/A", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := parseFloat(tc.in)
		if tc.want == nil {
			require.Nil(t, got, "input %q", tc.in)
			continue
		}
		require.NotNil(t, got, "input %q", tc.in)
		require.InDelta(t, *tc.want, *got, 0.0001)
	}
}

func TestParseDays(t *testing.T) {
	t.Parallel()
	got := parseDays("17 days")
	require.NotNil(t, got)
	require.Equal(t, 17, *got)

	require.Nil(t, parseDays("pending"))
	require.Nil(t, parseDays("  "))
}

func ptr(v float64) *float64 { return &v }
