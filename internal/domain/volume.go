package domain

import "fmt"

// Volume is a non-negative number of traded units
type Volume struct {
	value int64
}

// NewVolume creates a volume, rejecting negative values
func NewVolume(v int64) (Volume, error) {
	if v < 0 {
		return Volume{}, fmt.Errorf("%w: %d", ErrNegativeVolume, v)
	}
	return Volume{value: v}, nil
}

// MustVolume is a convenience constructor for volumes known to be valid
func MustVolume(v int64) Volume {
	vol, err := NewVolume(v)
	if err != nil {
		panic(err)
	}
	return vol
}

// Int64 returns the raw volume count
func (v Volume) Int64() int64 {
	return v.value
}

// Add returns the sum of two volumes
func (v Volume) Add(other Volume) Volume {
	return Volume{value: v.value + other.value}
}

// Sub returns the difference of two volumes.
// Subtraction below zero is forbidden.
func (v Volume) Sub(other Volume) (Volume, error) {
	return NewVolume(v.value - other.value)
}

// IsZero reports whether the volume is zero
func (v Volume) IsZero() bool {
	return v.value == 0
}

func (v Volume) String() string {
	return fmt.Sprintf("%d", v.value)
}
