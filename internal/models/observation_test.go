package models

import (
	"strings"
	"testing"
	"time"
)

func TestObservation_Qualifiers(t *testing.T) {
	value := 42.5
	obs := Observation{
		Timestamp:  time.Date(2024, 1, 15, 16, 45, 0, 0, time.UTC),
		Value:      &value,
		Qualifiers: []string{QualifierProvisional, QualifierIce},
	}

	if !obs.HasQualifier("P") {
		t.Error("HasQualifier(P) should be true")
	}
	if !obs.HasQualifier("Ice") {
		t.Error("HasQualifier(Ice) should be true")
	}
	if obs.HasQualifier("A") {
		t.Error("HasQualifier(A) should be false")
	}

	empty := Observation{}
	if empty.HasQualifier("P") {
		t.Error("observation without qualifiers should match nothing")
	}
}

func TestObservation_MaskedAndMissing(t *testing.T) {
	masked := MaskedSentinel
	real := 42.5

	tests := []struct {
		name        string
		obs         Observation
		wantMasked  bool
		wantMissing bool
	}{
		{
			name:       "masked sentinel",
			obs:        Observation{Value: &masked},
			wantMasked: true,
		},
		{
			name: "real value",
			obs:  Observation{Value: &real},
		},
		{
			name:        "missing value",
			obs:         Observation{},
			wantMissing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obs.IsMasked(); got != tt.wantMasked {
				t.Errorf("IsMasked() = %v, want %v", got, tt.wantMasked)
			}
			if got := tt.obs.IsMissing(); got != tt.wantMissing {
				t.Errorf("IsMissing() = %v, want %v", got, tt.wantMissing)
			}
		})
	}
}

type transientError interface {
	Error() string
	IsTransient() bool
}

// TestErrors_Taxonomy tests transience and message content across the
// error types callers branch on
func TestErrors_Taxonomy(t *testing.T) {
	tests := []struct {
		name          string
		err           transientError
		wantTransient bool
		wantContains  string
	}{
		{
			name:         "invalid service is permanent",
			err:          &InvalidServiceError{Service: "xv"},
			wantContains: "xv",
		},
		{
			name:          "fetch error is transient",
			err:           &FetchError{URL: "https://example.test/nwis/iv/", StatusCode: 503, Status: "503 Service Unavailable"},
			wantTransient: true,
			wantContains:  "https://example.test/nwis/iv/",
		},
		{
			name:         "no data error is permanent and names the URL",
			err:          &NoDataError{URL: "https://example.test/nwis/iv/?sites=0164", StatusCode: 200},
			wantContains: "sites=0164",
		},
		{
			name:         "validation error is permanent",
			err:          &ValidationError{Field: "station_id", Value: "", Message: "station id is required"},
			wantContains: "station id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsTransient(); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			if msg := tt.err.Error(); !strings.Contains(msg, tt.wantContains) {
				t.Errorf("Error() = %q, should contain %q", msg, tt.wantContains)
			}
		})
	}
}
