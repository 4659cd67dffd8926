package models

import (
	"fmt"
)

// InvalidServiceError indicates an unrecognized NWIS service key.
// Raised before any network call is attempted.
type InvalidServiceError struct {
	Service string
}

func (e *InvalidServiceError) Error() string {
	return fmt.Sprintf("invalid NWIS service %q: must be \"iv\" or \"dv\"", e.Service)
}

// IsTransient returns false as configuration errors are permanent
func (e *InvalidServiceError) IsTransient() bool {
	return false
}

// FetchError indicates a non-2xx response from an upstream data service.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("no data found at %s: %s", e.URL, e.Status)
}

// IsTransient returns true: the upstream service may recover
func (e *FetchError) IsTransient() bool {
	return true
}

// NoDataError indicates a successful request that yielded zero observations.
// Treated as fatal: downstream flags and metadata cannot be computed on an
// empty series.
type NoDataError struct {
	URL        string
	StatusCode int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("response status code %d: no data found at %s", e.StatusCode, e.URL)
}

// IsTransient returns false: an empty window means no data exists, not a
// transient condition
func (e *NoDataError) IsTransient() bool {
	return false
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
