package domain

import (
	"encoding/json"
)

// NullFloat64 marks a numeric value that may be unavailable.
// An invalid value is never interpreted as zero.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float wraps a valid value
func Float(v float64) NullFloat64 {
	return NullFloat64{Float64: v, Valid: true}
}

// Unavailable returns the invalid marker
func Unavailable() NullFloat64 {
	return NullFloat64{}
}

// MarshalJSON encodes unavailable values as null
func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null
func (n *NullFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat64{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// Value returns the value as an interface, nil when unavailable
func (n NullFloat64) Value() interface{} {
	if !n.Valid {
		return nil
	}
	return n.Float64
}
