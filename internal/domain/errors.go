package domain

import "errors"

var (
	// Value object errors
	ErrInvalidSymbol    = errors.New("invalid symbol format")
	ErrNegativePrice    = errors.New("price cannot be negative")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNegativeVolume   = errors.New("volume cannot be negative")
	ErrInvalidTimeRange = errors.New("time range start must be before end")

	// Bar errors
	ErrInvalidBar    = errors.New("inconsistent OHLC values")
	ErrNegativeCount = errors.New("trade count cannot be negative")

	// Aggregate errors
	ErrSymbolMismatch     = errors.New("bar symbol does not match aggregate")
	ErrDateMismatch       = errors.New("bar trading date does not match aggregate")
	ErrDuplicateTimestamp = errors.New("bar with this timestamp already exists")
	ErrAlreadyStarted     = errors.New("bar collection already started")
	ErrNotStarted         = errors.New("bar collection not started")
	ErrAlreadyComplete    = errors.New("bar collection is already complete")

	// Calculation errors
	ErrNoBars            = errors.New("no bars available")
	ErrNoVolume          = errors.New("bars have no volume")
	ErrMixedSymbols      = errors.New("bars contain mixed symbols")
	ErrMixedDates        = errors.New("bars span multiple trading dates")
	ErrUnsortedBars      = errors.New("bars are not sorted by timestamp")
	ErrInvalidFrame      = errors.New("frame seconds must be positive")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidPriceField = errors.New("unknown price field")

	// Collaborator errors
	ErrSummaryNotFound     = errors.New("daily summary not found")
	ErrJobNotFound         = errors.New("ingestion job not found")
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	ErrRateLimited         = errors.New("rate limited by provider")
	ErrInvalidResponse     = errors.New("invalid response from provider")
	ErrInternal            = errors.New("internal error")
)

// DomainError wraps domain errors with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error with context
func NewDomainError(err error, message, code string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
