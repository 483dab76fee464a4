package zoog

import "fmt"

// Decibels wraps a dB value as a plain float64; there is no precision
// contract beyond what double-precision arithmetic already gives.
type Decibels float64

// Add returns the sum of two dB values.
func (d Decibels) Add(other Decibels) Decibels {
	return d + other
}

// Sub returns the difference of two dB values.
func (d Decibels) Sub(other Decibels) Decibels {
	return d - other
}

// String renders the value the way a log line or CLI summary would.
func (d Decibels) String() string {
	return fmt.Sprintf("%g dB", float64(d))
}
