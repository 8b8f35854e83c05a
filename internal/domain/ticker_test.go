package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Ticker
		wantErr bool
	}{
		{name: "plain US symbol", raw: "AAPL", want: Ticker{Symbol: "AAPL"}},
		{name: "lowercase normalized", raw: "aapl", want: Ticker{Symbol: "AAPL"}},
		{name: "whitespace trimmed", raw: "  msft  ", want: Ticker{Symbol: "MSFT"}},
		{name: "london suffix", raw: "VOD.L", want: Ticker{Symbol: "VOD.L", Suffix: "L"}},
		{name: "two letter suffix", raw: "MAYBANK.KL", want: Ticker{Symbol: "MAYBANK.KL", Suffix: "KL"}},
		{name: "trailing dot keeps no suffix", raw: "BRK.", want: Ticker{Symbol: "BRK."}},
		{name: "leading dot keeps no suffix", raw: ".HIDDEN", want: Ticker{Symbol: ".HIDDEN"}},
		{name: "empty", raw: "", wantErr: true},
		{name: "only whitespace", raw: "   ", wantErr: true},
		{name: "interior space", raw: "VOD L", wantErr: true},
		{name: "slash", raw: "BRK/B", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTicker(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTickerConventions(t *testing.T) {
	vod, err := ParseTicker("VOD.L")
	require.NoError(t, err)
	assert.Equal(t, "GBP", vod.DefaultCurrency())
	assert.True(t, vod.QuotedInMinorUnits())

	sony, err := ParseTicker("6758.T")
	require.NoError(t, err)
	assert.Equal(t, "JPY", sony.DefaultCurrency())
	assert.False(t, sony.QuotedInMinorUnits())

	aapl, err := ParseTicker("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "", aapl.DefaultCurrency())
	assert.False(t, aapl.QuotedInMinorUnits())

	// Unknown suffix is not an error, it just carries no conventions.
	odd, err := ParseTicker("FOO.ZZ")
	require.NoError(t, err)
	assert.Equal(t, "ZZ", odd.Suffix)
	assert.Equal(t, "", odd.DefaultCurrency())
}
