package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// newTestBar builds a bar on 2024-01-02 at 14:30+minute UTC, which is
// inside the regular session window of the fixed UTC-5 approximation
func newTestBar(t *testing.T, symbol string, minute int, open, high, low, clos string, volume int64) *domain.OHLCVBar {
	t.Helper()

	bar, err := domain.NewOHLCVBar(
		domain.MustSymbol(symbol),
		domain.NewTimestampUTC(2024, time.January, 2, 14, 30+minute, 0),
		domain.MustPrice(open),
		domain.MustPrice(high),
		domain.MustPrice(low),
		domain.MustPrice(clos),
		domain.MustVolume(volume),
	)
	require.NoError(t, err)
	return bar
}

func TestNewOHLCVBar(t *testing.T) {
	tests := []struct {
		name                  string
		open, high, low, clos string
		wantErr               bool
	}{
		{name: "consistent bar", open: "100", high: "105", low: "99", clos: "103"},
		{name: "flat bar", open: "100", high: "100", low: "100", clos: "100"},
		{name: "high below open", open: "106", high: "105", low: "99", clos: "103", wantErr: true},
		{name: "high below close", open: "100", high: "105", low: "99", clos: "106", wantErr: true},
		{name: "high below low", open: "100", high: "98", low: "99", clos: "98", wantErr: true},
		{name: "low above open", open: "100", high: "105", low: "101", clos: "103", wantErr: true},
		{name: "low above close", open: "103", high: "105", low: "101", clos: "100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewOHLCVBar(
				domain.MustSymbol("AAPL"),
				domain.NewTimestampUTC(2024, time.January, 2, 14, 30, 0),
				domain.MustPrice(tt.open),
				domain.MustPrice(tt.high),
				domain.MustPrice(tt.low),
				domain.MustPrice(tt.clos),
				domain.MustVolume(1000),
			)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidBar)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOHLCVBar_Identity(t *testing.T) {
	a := newTestBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)
	b := newTestBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)

	assert.NotEqual(t, a.ID(), b.ID(), "equal field values must still get distinct identities")
}

func TestOHLCVBar_Enrichment(t *testing.T) {
	bar := newTestBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)

	_, ok := bar.TradeCount()
	assert.False(t, ok)
	_, ok = bar.VWAP()
	assert.False(t, ok)
	assert.Equal(t, 0, bar.Revision())

	require.NoError(t, bar.SetTradeCount(42))
	n, ok := bar.TradeCount()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, 1, bar.Revision())

	bar.SetVWAP(domain.MustPrice("102.5"))
	vwap, ok := bar.VWAP()
	require.True(t, ok)
	assert.Equal(t, "102.5000", vwap.String())
	assert.Equal(t, 2, bar.Revision())

	assert.ErrorIs(t, bar.SetTradeCount(-1), domain.ErrNegativeCount)
	assert.Equal(t, 2, bar.Revision(), "rejected update must not bump revision")
}

func TestOHLCVBar_TypicalPrice(t *testing.T) {
	bar := newTestBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)

	// (105 + 99 + 103) / 3
	assert.Equal(t, "102.3333333333333333", bar.TypicalPrice().StringFixed(16))
}

func TestSortedByTimestamp(t *testing.T) {
	b0 := newTestBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)
	b1 := newTestBar(t, "AAPL", 1, "103", "104", "102", "104", 500)
	b2 := newTestBar(t, "AAPL", 2, "104", "106", "103", "105", 700)

	input := []*domain.OHLCVBar{b2, b0, b1}
	sorted := domain.SortedByTimestamp(input)

	assert.Equal(t, []*domain.OHLCVBar{b0, b1, b2}, sorted)
	assert.Equal(t, []*domain.OHLCVBar{b2, b0, b1}, input, "input must not be modified")
}
