package nwis

import (
	"strconv"
	"strings"
	"time"

	"waterdata-platform/internal/models"
)

// responseBody mirrors the fixed shape of an NWIS JSON response. The
// nested path value -> timeSeries[0] -> values[0] -> value[] is part of
// the service contract; a differently shaped response is an upstream
// contract violation.
type responseBody struct {
	Value struct {
		QueryInfo struct {
			QueryURL string `json:"queryURL"`
		} `json:"queryInfo"`
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo struct {
		SiteName    string `json:"siteName"`
		GeoLocation struct {
			GeogLocation struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"geogLocation"`
		} `json:"geoLocation"`
	} `json:"sourceInfo"`
	Variable struct {
		VariableDescription string `json:"variableDescription"`
	} `json:"variable"`
	Values []struct {
		Value []rawObservation `json:"value"`
	} `json:"values"`
}

// rawObservation is a single row as NWIS serves it: the value is a JSON
// string, the timestamp an ISO-8601 local time with offset.
type rawObservation struct {
	Value      string   `json:"value"`
	Qualifiers []string `json:"qualifiers"`
	DateTime   string   `json:"dateTime"`
}

// flatten extracts the nested value array into observation rows:
// timestamps parsed to local wall-clock time, values coerced to float64.
func (r *responseBody) flatten() ([]models.Observation, error) {
	if len(r.Value.TimeSeries) == 0 || len(r.Value.TimeSeries[0].Values) == 0 {
		return nil, nil
	}

	raw := r.Value.TimeSeries[0].Values[0].Value
	observations := make([]models.Observation, 0, len(raw))
	for _, row := range raw {
		ts, err := parseLocalTimestamp(row.DateTime)
		if err != nil {
			return nil, &models.ValidationError{
				Field:   "dateTime",
				Value:   row.DateTime,
				Message: "invalid NWIS timestamp: " + row.DateTime,
			}
		}

		value, err := strconv.ParseFloat(row.Value, 64)
		if err != nil {
			return nil, &models.ValidationError{
				Field:   "value",
				Value:   row.Value,
				Message: "non-numeric NWIS value: " + row.Value,
			}
		}

		observations = append(observations, models.Observation{
			Timestamp:  ts,
			Value:      &value,
			Qualifiers: row.Qualifiers,
		})
	}
	return observations, nil
}

// metadata pulls the station and variable fields out of the response body.
// Missing fields propagate as zero values.
func (r *responseBody) metadata() (siteName string, latitude, longitude float64, varDescription string) {
	if len(r.Value.TimeSeries) == 0 {
		return "", 0, 0, ""
	}
	ts := r.Value.TimeSeries[0]
	return ts.SourceInfo.SiteName,
		ts.SourceInfo.GeoLocation.GeogLocation.Latitude,
		ts.SourceInfo.GeoLocation.GeogLocation.Longitude,
		ts.Variable.VariableDescription
}

// parseLocalTimestamp parses an NWIS timestamp, discarding the timezone
// offset. NWIS timestamps are local to the station, not UTC-normalized;
// splitting on 'T' and stripping the offset is deliberate.
func parseLocalTimestamp(raw string) (time.Time, error) {
	datePart, timePart, hasTime := strings.Cut(raw, "T")
	if !hasTime {
		// Daily-value rows carry a bare calendar date.
		return time.Parse("2006-01-02", raw)
	}

	if i := strings.IndexAny(timePart, "+Z"); i >= 0 {
		timePart = timePart[:i]
	}
	if i := strings.LastIndex(timePart, "-"); i >= 0 {
		timePart = timePart[:i]
	}
	if i := strings.Index(timePart, "."); i >= 0 {
		timePart = timePart[:i]
	}
	if len(timePart) == len("15:04") {
		timePart += ":00"
	}

	return time.Parse("2006-01-02T15:04:05", datePart+"T"+timePart)
}
