package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

const (
	// maxPriceGapRatio flags a single-step open-vs-prior-close move
	// larger than 50%.
	maxPriceGapRatio = 0.5

	// Volume-pattern anomaly thresholds over trailing windows.
	zeroVolumeWindow    = 10
	zeroVolumeThreshold = 5
	volumeSpikeWindow   = 20
	volumeSpikeFactor   = 10
)

// ValidationService applies business-rule checks to bars. Findings are
// returned as descriptive strings, never as errors: validation is a
// reporting concern and the caller decides severity. Structural
// invariants are already enforced at bar construction; the overlapping
// checks here are deliberate defense in depth.
type ValidationService struct{}

// NewValidationService creates a validation service
func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// ValidateBar checks a single bar: positive prices, OHLC consistency
// and the simplified trading-hours window
func (s *ValidationService) ValidateBar(bar *domain.OHLCVBar) []string {
	var findings []string
	prefix := fmt.Sprintf("%s %s", bar.Symbol(), bar.Timestamp())

	prices := []struct {
		name  string
		price domain.Price
	}{
		{"open", bar.Open()},
		{"high", bar.High()},
		{"low", bar.Low()},
		{"close", bar.Close()},
	}
	for _, p := range prices {
		name, price := p.name, p.price
		if !price.GreaterThan(domain.Price{}) {
			findings = append(findings, fmt.Sprintf("%s: %s price must be positive, got %s", prefix, name, price))
		}
	}

	if bar.Volume().Int64() < 0 {
		findings = append(findings, fmt.Sprintf("%s: volume must be non-negative", prefix))
	}

	if bar.High().LessThan(bar.Open()) || bar.High().LessThan(bar.Close()) || bar.High().LessThan(bar.Low()) {
		findings = append(findings, fmt.Sprintf("%s: high %s below open, close or low", prefix, bar.High()))
	}
	if bar.Low().GreaterThan(bar.Open()) || bar.Low().GreaterThan(bar.Close()) {
		findings = append(findings, fmt.Sprintf("%s: low %s above open or close", prefix, bar.Low()))
	}

	if bar.Timestamp().IsWeekend() {
		findings = append(findings, fmt.Sprintf("%s: bar timestamped on a weekend", prefix))
	} else if !bar.Timestamp().IsMarketHours() {
		findings = append(findings, fmt.Sprintf("%s: bar outside regular market hours", prefix))
	}

	return findings
}

// ValidateBatch runs per-bar checks plus cross-bar checks: strict
// timestamp monotonicity, extreme price gaps, zero-volume bars with
// price movement, and volume-pattern anomalies over trailing windows.
// The input is expected in timestamp order; ordering violations are
// reported as findings like everything else.
func (s *ValidationService) ValidateBatch(bars []*domain.OHLCVBar) []string {
	var findings []string

	for _, bar := range bars {
		findings = append(findings, s.ValidateBar(bar)...)
	}

	for i := 1; i < len(bars); i++ {
		prefix := fmt.Sprintf("%s %s", bars[i].Symbol(), bars[i].Timestamp())

		if !bars[i].Timestamp().After(bars[i-1].Timestamp()) {
			findings = append(findings, fmt.Sprintf("%s: timestamp not strictly after previous bar %s",
				prefix, bars[i-1].Timestamp()))
		}

		prevClose := bars[i-1].Close()
		if !prevClose.IsZero() {
			gap := bars[i].Open().Decimal().Sub(prevClose.Decimal()).Abs().Div(prevClose.Decimal())
			if gap.GreaterThan(decimal.NewFromFloat(maxPriceGapRatio)) {
				findings = append(findings, fmt.Sprintf("%s: open %s gaps %s%% from previous close %s",
					prefix, bars[i].Open(), gap.Mul(decimal.NewFromInt(100)).StringFixed(1), prevClose))
			}
		}
	}

	for i, bar := range bars {
		if bar.Volume().IsZero() && !bar.Open().Equal(bar.Close()) {
			findings = append(findings, fmt.Sprintf("%s %s: price moved %s -> %s with zero volume",
				bar.Symbol(), bar.Timestamp(), bar.Open(), bar.Close()))
		}

		// Report a zero-volume run once, when the trailing window
		// first reaches the threshold.
		if zeros := zeroVolumeCount(bars, i); zeros >= zeroVolumeThreshold &&
			(i == 0 || zeroVolumeCount(bars, i-1) < zeroVolumeThreshold) {
			findings = append(findings, fmt.Sprintf("%s %s: %d of the trailing %d bars have zero volume",
				bar.Symbol(), bar.Timestamp(), zeros, zeroVolumeWindow))
		}
		if finding := s.checkVolumeSpike(bars, i); finding != "" {
			findings = append(findings, finding)
		}
	}

	return findings
}

// zeroVolumeCount counts zero-volume bars in the trailing window
// ending at index i
func zeroVolumeCount(bars []*domain.OHLCVBar, i int) int {
	lo := i - zeroVolumeWindow + 1
	if lo < 0 {
		lo = 0
	}

	zeros := 0
	for _, bar := range bars[lo : i+1] {
		if bar.Volume().IsZero() {
			zeros++
		}
	}
	return zeros
}

// checkVolumeSpike reports a bar trading more than volumeSpikeFactor
// times the trailing average non-zero volume
func (s *ValidationService) checkVolumeSpike(bars []*domain.OHLCVBar, i int) string {
	lo := i - volumeSpikeWindow
	if lo < 0 {
		lo = 0
	}
	if lo == i {
		return ""
	}

	var sum, n int64
	for _, bar := range bars[lo:i] {
		if !bar.Volume().IsZero() {
			sum += bar.Volume().Int64()
			n++
		}
	}
	if n == 0 {
		return ""
	}

	avg := sum / n
	if avg > 0 && bars[i].Volume().Int64() > volumeSpikeFactor*avg {
		return fmt.Sprintf("%s %s: volume %s exceeds %dx trailing average %d",
			bars[i].Symbol(), bars[i].Timestamp(), bars[i].Volume(), volumeSpikeFactor, avg)
	}
	return ""
}
