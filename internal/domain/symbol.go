package domain

import (
	"strings"
	"unicode"
)

// Symbol is a normalized uppercase ticker symbol.
// Valid symbols are 1-10 characters of uppercase letters, digits and dots.
type Symbol struct {
	value string
}

// NewSymbol creates a symbol, normalizing to uppercase and trimming whitespace
func NewSymbol(s string) (Symbol, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	if err := validateSymbol(s); err != nil {
		return Symbol{}, err
	}

	return Symbol{value: s}, nil
}

// MustSymbol is a convenience constructor for symbols known to be valid.
// It panics on invalid input and is intended for tests and static wiring.
func MustSymbol(s string) Symbol {
	sym, err := NewSymbol(s)
	if err != nil {
		panic(err)
	}
	return sym
}

func validateSymbol(s string) error {
	if len(s) < 1 || len(s) > 10 {
		return ErrInvalidSymbol
	}

	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) && r != '.' {
			return ErrInvalidSymbol
		}
	}

	return nil
}

func (s Symbol) String() string {
	return s.value
}

// IsZero reports whether the symbol is the zero value
func (s Symbol) IsZero() bool {
	return s.value == ""
}
