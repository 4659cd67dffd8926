package models

import (
	"time"
)

// MaskedSentinel is the value NWIS serves in place of ice-affected readings
// at public access level. Real values require cooperator or internal access.
const MaskedSentinel = -999999.0

// Qualifier codes attached to NWIS observations.
const (
	QualifierProvisional = "P"
	QualifierApproved    = "A"
	QualifierIce         = "Ice"
	QualifierIceShort    = "i"
)

// Observation represents a single time-series data point from NWIS.
// NULL/masked values represented as a nil pointer, matching the
// -999999 sentinel handling in ResolveMasks.
type Observation struct {
	Timestamp  time.Time `json:"timestamp" db:"observation_time"`
	Value      *float64  `json:"value,omitempty" db:"value"`
	Qualifiers []string  `json:"qualifiers" db:"-"`
}

// HasQualifier reports whether the observation carries the given
// qualifier code.
func (o *Observation) HasQualifier(code string) bool {
	for _, q := range o.Qualifiers {
		if q == code {
			return true
		}
	}
	return false
}

// IsMasked reports whether the value is the NWIS public-access mask sentinel.
func (o *Observation) IsMasked() bool {
	return o.Value != nil && *o.Value == MaskedSentinel
}

// IsMissing reports whether the observation has no value.
func (o *Observation) IsMissing() bool {
	return o.Value == nil
}
