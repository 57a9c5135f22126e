package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/services"
)

func countFindings(findings []string, substr string) int {
	n := 0
	for _, f := range findings {
		if strings.Contains(f, substr) {
			n++
		}
	}
	return n
}

func TestValidationService_ValidateBar(t *testing.T) {
	svc := services.NewValidationService()

	t.Run("clean in-session bar has no findings", func(t *testing.T) {
		bar := minuteBar(t, "AAPL", 0, "100", "105", "99", "103", 1000)
		assert.Empty(t, svc.ValidateBar(bar))
	})

	t.Run("zero prices are reported per field", func(t *testing.T) {
		bar := flatBar(t, 0, "0", 100)
		findings := svc.ValidateBar(bar)
		assert.Equal(t, 4, countFindings(findings, "must be positive"))
	})

	t.Run("weekend bar is reported", func(t *testing.T) {
		bar, err := domain.NewOHLCVBar(
			domain.MustSymbol("AAPL"),
			domain.NewTimestampUTC(2024, time.January, 6, 15, 0, 0), // Saturday
			domain.MustPrice("100"), domain.MustPrice("100"),
			domain.MustPrice("100"), domain.MustPrice("100"),
			domain.MustVolume(100),
		)
		require.NoError(t, err)

		findings := svc.ValidateBar(bar)
		assert.Equal(t, 1, countFindings(findings, "weekend"))
		assert.Zero(t, countFindings(findings, "outside regular market hours"),
			"weekend supersedes the hours check")
	})

	t.Run("after-hours bar is reported", func(t *testing.T) {
		bar, err := domain.NewOHLCVBar(
			domain.MustSymbol("AAPL"),
			domain.NewTimestampUTC(2024, time.January, 2, 23, 0, 0),
			domain.MustPrice("100"), domain.MustPrice("100"),
			domain.MustPrice("100"), domain.MustPrice("100"),
			domain.MustVolume(100),
		)
		require.NoError(t, err)

		findings := svc.ValidateBar(bar)
		assert.Equal(t, 1, countFindings(findings, "outside regular market hours"))
	})
}

func TestValidationService_ValidateBatch(t *testing.T) {
	svc := services.NewValidationService()

	t.Run("non-monotonic timestamps are reported", func(t *testing.T) {
		bars := []*domain.OHLCVBar{
			flatBar(t, 1, "100", 100),
			flatBar(t, 0, "100", 100),
		}
		findings := svc.ValidateBatch(bars)
		assert.Equal(t, 1, countFindings(findings, "not strictly after previous bar"))
	})

	t.Run("duplicate timestamps are reported", func(t *testing.T) {
		bars := []*domain.OHLCVBar{
			flatBar(t, 0, "100", 100),
			flatBar(t, 0, "100", 100),
		}
		findings := svc.ValidateBatch(bars)
		assert.Equal(t, 1, countFindings(findings, "not strictly after previous bar"))
	})

	t.Run("extreme gap versus previous close is reported", func(t *testing.T) {
		bars := []*domain.OHLCVBar{
			flatBar(t, 0, "100", 100),
			flatBar(t, 1, "151", 100), // 51% above previous close
		}
		findings := svc.ValidateBatch(bars)
		assert.Equal(t, 1, countFindings(findings, "gaps"))
	})

	t.Run("fifty percent gap exactly is not reported", func(t *testing.T) {
		bars := []*domain.OHLCVBar{
			flatBar(t, 0, "100", 100),
			flatBar(t, 1, "150", 100),
		}
		findings := svc.ValidateBatch(bars)
		assert.Zero(t, countFindings(findings, "gaps"))
	})

	t.Run("zero volume with price movement is reported", func(t *testing.T) {
		bar := minuteBar(t, "AAPL", 0, "100", "101", "100", "101", 0)
		findings := svc.ValidateBatch([]*domain.OHLCVBar{bar})
		assert.Equal(t, 1, countFindings(findings, "zero volume"))
	})

	t.Run("zero-volume run is reported once at the threshold", func(t *testing.T) {
		var bars []*domain.OHLCVBar
		for i := 0; i < 8; i++ {
			bars = append(bars, flatBar(t, i, "100", 0))
		}
		findings := svc.ValidateBatch(bars)
		assert.Equal(t, 1, countFindings(findings, "bars have zero volume"))
	})

	t.Run("volume spike versus trailing average is reported", func(t *testing.T) {
		var bars []*domain.OHLCVBar
		for i := 0; i < 20; i++ {
			bars = append(bars, flatBar(t, i, "100", 100))
		}
		bars = append(bars, flatBar(t, 20, "100", 2000))

		findings := svc.ValidateBatch(bars)
		assert.Equal(t, 1, countFindings(findings, "exceeds 10x trailing average"))
	})

	t.Run("clean batch has no findings", func(t *testing.T) {
		bars := []*domain.OHLCVBar{
			minuteBar(t, "AAPL", 0, "100.00", "101.00", "99.50", "100.50", 1000),
			minuteBar(t, "AAPL", 1, "100.50", "102.00", "100.00", "101.75", 1500),
		}
		assert.Empty(t, svc.ValidateBatch(bars))
	})
}
