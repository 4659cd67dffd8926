package models

import (
	"net/url"
	"strings"
	"time"
)

// SeriesMetadata describes a retrieved time series: the query parameters
// that produced it and the station/variable fields extracted from the
// response body. It is computed once at fetch time and carried by every
// derived view of the observation table.
type SeriesMetadata struct {
	StationID           string    `json:"station_id"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	Parameter           string    `json:"parameter"`
	StatCode            string    `json:"stat_code,omitempty"`
	Service             string    `json:"service"`
	Access              int       `json:"access"`
	URL                 string    `json:"url"`
	SiteName            string    `json:"site_name,omitempty"`
	Latitude            float64   `json:"latitude,omitempty"`
	Longitude           float64   `json:"longitude,omitempty"`
	VariableDescription string    `json:"variable_description,omitempty"`

	// Derived quality fields, cached by the series on computation.
	GapTolerance string `json:"gap_tolerance,omitempty"`
	Approval     string `json:"approval,omitempty"`
	Qualifier    string `json:"qualifier,omitempty"`
}

// QueryParameters parses the metadata URL back into its query parameters.
func (m *SeriesMetadata) QueryParameters() map[string]string {
	params := make(map[string]string)
	parsed, err := url.Parse(m.URL)
	if err != nil {
		return params
	}
	for key, values := range parsed.Query() {
		params[key] = strings.Join(values, ",")
	}
	return params
}

// Coordinates returns the station location as (latitude, longitude).
func (m *SeriesMetadata) Coordinates() (float64, float64) {
	return m.Latitude, m.Longitude
}
