package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":   "1.01",
		"8.875":   "8.88",
		"-8.875":  "-8.88",
		"9.34579": "9.35",
		"2.3":     "2.3",
	}
	for in, want := range cases {
		got := Round2(decimal.RequireFromString(in))
		require.True(t, got.Equal(decimal.RequireFromString(want)), "%s rounded to %s", in, got)
	}
}

func TestClampAndNonNegative(t *testing.T) {
	lo, hi := decimal.Zero, decimal.NewFromInt(10)
	require.True(t, Clamp(decimal.NewFromInt(-1), lo, hi).Equal(lo))
	require.True(t, Clamp(decimal.NewFromInt(11), lo, hi).Equal(hi))
	require.True(t, Clamp(decimal.NewFromInt(4), lo, hi).Equal(decimal.NewFromInt(4)))
	require.True(t, NonNegative(decimal.NewFromInt(-3)).IsZero())
}

func TestPercent(t *testing.T) {
	require.True(t, Percent(decimal.NewFromInt(7)).Equal(decimal.RequireFromString("0.07")))
	require.True(t, Hundred().Equal(decimal.NewFromInt(100)))
}

func TestFromFloatDropsNoise(t *testing.T) {
	require.Equal(t, "0.3", FromFloat(0.1+0.2).String())
	require.Equal(t, 9.35, Float(decimal.RequireFromString("9.35")))
}

func TestFormat(t *testing.T) {
	f := NewFormatter("usd", "en-US")
	require.Equal(t, "USD", f.Code())
	require.True(t, strings.HasSuffix(f.Format(decimal.RequireFromString("1234.5")), "1,234.50"))
	require.True(t, strings.HasSuffix(f.Format(decimal.Zero), "0.00"))
	neg := f.Format(decimal.RequireFromString("-2.005"))
	require.True(t, strings.HasPrefix(neg, "-"), neg)
	require.True(t, strings.HasSuffix(neg, "2.01"), neg)
	require.True(t, strings.HasSuffix(f.Format(decimal.RequireFromString("9.345794")), "9.35"))
}

func TestFormatFallbacks(t *testing.T) {
	var zero Formatter
	require.Equal(t, "USD", zero.Code())
	require.Equal(t, NewFormatter("USD", "en-US").Format(decimal.NewFromInt(20)), zero.Format(decimal.NewFromInt(20)))

	bad := NewFormatter("not-a-code", "??")
	require.Equal(t, "USD", bad.Code())
}

func TestFormatBeyondInt64(t *testing.T) {
	f := NewFormatter("USD", "en-US")
	got := f.Format(decimal.RequireFromString("12345678901234567890.125"))
	require.True(t, strings.HasSuffix(got, "12,345,678,901,234,567,890.13"), got)
}

func TestGroup(t *testing.T) {
	require.Equal(t, "0", group("0", ","))
	require.Equal(t, "999", group("999", ","))
	require.Equal(t, "1,000", group("1000", ","))
	require.Equal(t, "123.456.789", group("123456789", "."))
	require.Equal(t, "1234", group("1234", ""))
}
