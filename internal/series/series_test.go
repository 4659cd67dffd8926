package series

import (
	"testing"
	"time"

	"waterdata-platform/internal/models"
)

func valuePtr(v float64) *float64 {
	return &v
}

func obsAt(ts time.Time, value float64, qualifiers ...string) models.Observation {
	return models.Observation{
		Timestamp:  ts,
		Value:      valuePtr(value),
		Qualifiers: qualifiers,
	}
}

func testMetadata(start, end time.Time) models.SeriesMetadata {
	return models.SeriesMetadata{
		StationID:           "01646500",
		StartDate:           start,
		EndDate:             end,
		Parameter:           "00060",
		Service:             "iv",
		SiteName:            "POTOMAC RIVER NEAR WASH, DC",
		VariableDescription: "Discharge, cubic feet per second",
	}
}

// TestSeries_CheckGaps tests gap detection for complete and incomplete
// indexes, including the unknown-tolerance case
func TestSeries_CheckGaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		series    *Series
		tolerance string
		want      GapStatus
	}{
		{
			name: "complete 15-minute index has no gaps",
			series: New([]models.Observation{
				obsAt(time.Date(2024, 1, 15, 16, 45, 0, 0, time.UTC), 42.5),
				obsAt(time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), 42.1),
				obsAt(time.Date(2024, 1, 15, 17, 15, 0, 0, time.UTC), 41.8),
			}, testMetadata(
				time.Date(2024, 1, 15, 16, 45, 0, 0, time.UTC),
				time.Date(2024, 1, 15, 17, 15, 0, 0, time.UTC),
			)),
			tolerance: "15min",
			want:      GapsNone,
		},
		{
			name: "daily index with a missing day has gaps",
			series: New([]models.Observation{
				obsAt(day(3), 1.0),
				obsAt(day(5), 2.0),
				obsAt(day(6), 3.0),
			}, testMetadata(day(3), day(6))),
			tolerance: "D",
			want:      GapsPresent,
		},
		{
			name: "no tolerance anywhere is unknown, not clean",
			series: New([]models.Observation{
				obsAt(day(3), 1.0),
			}, testMetadata(day(3), day(3))),
			tolerance: "",
			want:      GapsUnknown,
		},
		{
			name:      "empty series with no tolerance is unknown",
			series:    New(nil, testMetadata(time.Time{}, time.Time{})),
			tolerance: "",
			want:      GapsUnknown,
		},
		{
			name: "unparseable tolerance is unknown",
			series: New([]models.Observation{
				obsAt(day(3), 1.0),
			}, testMetadata(day(3), day(3))),
			tolerance: "sometimes",
			want:      GapsUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.series.CheckGaps(tt.tolerance); got != tt.want {
				t.Errorf("CheckGaps(%q) = %v, want %v", tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestSeries_CheckGaps_MetadataFallback(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	metadata := testMetadata(day(3), day(6))
	metadata.GapTolerance = "D"

	s := New([]models.Observation{
		obsAt(day(3), 1.0),
		obsAt(day(5), 2.0),
		obsAt(day(6), 3.0),
	}, metadata)

	if got := s.CheckGaps(""); got != GapsPresent {
		t.Errorf("CheckGaps with metadata tolerance = %v, want %v", got, GapsPresent)
	}
}

func TestSeries_CheckGapsBetween(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	s := New([]models.Observation{
		obsAt(day(3), 1.0),
		obsAt(day(5), 2.0),
		obsAt(day(6), 3.0),
	}, testMetadata(day(3), day(6)))

	// The only missing day is the 4th.
	if got := s.CheckGapsBetween("D", day(3), day(4)); got != GapsPresent {
		t.Errorf("CheckGapsBetween over gap window = %v, want %v", got, GapsPresent)
	}
	if got := s.CheckGapsBetween("D", day(5), day(6)); got != GapsNone {
		t.Errorf("CheckGapsBetween over clean window = %v, want %v", got, GapsNone)
	}
}

func TestSeries_GapIndex(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	s := New([]models.Observation{
		obsAt(day(3), 1.0),
		obsAt(day(5), 2.0),
		obsAt(day(6), 3.0),
	}, testMetadata(day(3), day(6)))

	missing, err := s.GapIndex("D")
	if err != nil {
		t.Fatalf("GapIndex() error = %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("GapIndex() returned %d timestamps, want 1", len(missing))
	}
	if !missing[0].Equal(day(4)) {
		t.Errorf("GapIndex()[0] = %v, want %v", missing[0], day(4))
	}

	if _, err := s.GapIndex("bogus"); err == nil {
		t.Error("GapIndex with bad tolerance should fail")
	}
}

func TestSeries_FillGaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	s := New([]models.Observation{
		obsAt(day(3), 1.0, "A"),
		obsAt(day(5), 2.0, "A"),
		obsAt(day(6), 3.0, "A"),
	}, testMetadata(day(3), day(6)))

	filled := s.FillGaps("D")

	if filled.Len() != 4 {
		t.Fatalf("FillGaps() length = %d, want 4", filled.Len())
	}

	// Existing rows keep their values and qualifiers.
	if filled.Observations[0].Value == nil || *filled.Observations[0].Value != 1.0 {
		t.Error("FillGaps() should preserve existing values")
	}
	if !filled.Observations[0].HasQualifier("A") {
		t.Error("FillGaps() should preserve existing qualifiers")
	}

	// The inserted row is a missing value at the gap timestamp.
	inserted := filled.Observations[1]
	if !inserted.Timestamp.Equal(day(4)) {
		t.Errorf("inserted timestamp = %v, want %v", inserted.Timestamp, day(4))
	}
	if inserted.Value != nil {
		t.Error("inserted observation should have a nil value")
	}
	if len(inserted.Qualifiers) != 0 {
		t.Error("inserted observation should have no qualifiers")
	}

	// Metadata survives, with the resolved tolerance recorded.
	if filled.Metadata.StationID != s.Metadata.StationID {
		t.Error("FillGaps() should carry the station ID")
	}
	if filled.Metadata.SiteName != s.Metadata.SiteName {
		t.Error("FillGaps() should carry the site name")
	}
	if filled.Metadata.GapTolerance != "D" {
		t.Errorf("filled GapTolerance = %q, want %q", filled.Metadata.GapTolerance, "D")
	}

	// The filled series is complete.
	if got := filled.CheckGaps("D"); got != GapsNone {
		t.Errorf("filled CheckGaps = %v, want %v", got, GapsNone)
	}

	// The source series is untouched.
	if s.Len() != 3 {
		t.Errorf("source series length changed to %d", s.Len())
	}
}

func TestSeries_FillGaps_NoTolerance(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	s := New([]models.Observation{
		obsAt(day(3), 1.0),
		obsAt(day(5), 2.0),
	}, testMetadata(day(3), day(5)))

	filled := s.FillGaps("")
	if filled != s {
		t.Error("FillGaps without a tolerance should return the series unchanged")
	}
	if filled.Len() != 2 {
		t.Errorf("FillGaps without a tolerance changed length to %d", filled.Len())
	}
}

// TestSeries_Approval tests provisional/approved classification
func TestSeries_Approval(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		observations []models.Observation
		want         string
	}{
		{
			name: "any provisional row makes the series provisional",
			observations: []models.Observation{
				obsAt(ts, 1.0, "A"),
				obsAt(ts.Add(time.Hour), 2.0, "P"),
			},
			want: ApprovalProvisional,
		},
		{
			name: "all approved rows make the series approved",
			observations: []models.Observation{
				obsAt(ts, 1.0, "A"),
				obsAt(ts.Add(time.Hour), 2.0, "A"),
			},
			want: ApprovalApproved,
		},
		{
			name:         "empty series is approved",
			observations: nil,
			want:         ApprovalApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.observations, testMetadata(ts, ts))
			if got := s.Approval(); got != tt.want {
				t.Errorf("Approval() = %q, want %q", got, tt.want)
			}
			if s.Metadata.Approval != tt.want {
				t.Errorf("Metadata.Approval = %q, want %q", s.Metadata.Approval, tt.want)
			}
			// Recomputation gives the same answer.
			if got := s.Approval(); got != tt.want {
				t.Errorf("second Approval() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSeries_Qualifier tests ice qualifier detection, including the
// short "i" spelling some stations serve
func TestSeries_Qualifier(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		observations []models.Observation
		want         string
	}{
		{
			name: "ice qualifier detected",
			observations: []models.Observation{
				obsAt(ts, 1.0, "A"),
				obsAt(ts.Add(time.Hour), 2.0, "P", "Ice"),
			},
			want: QualifierIce,
		},
		{
			name: "short ice spelling detected",
			observations: []models.Observation{
				obsAt(ts, 1.0, "P", "i"),
			},
			want: QualifierIce,
		},
		{
			name: "no ice qualifiers",
			observations: []models.Observation{
				obsAt(ts, 1.0, "A"),
			},
			want: QualifierNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.observations, testMetadata(ts, ts))
			if got := s.Qualifier(); got != tt.want {
				t.Errorf("Qualifier() = %q, want %q", got, tt.want)
			}
			if s.Metadata.Qualifier != tt.want {
				t.Errorf("Metadata.Qualifier = %q, want %q", s.Metadata.Qualifier, tt.want)
			}
		})
	}
}

func TestSeries_ResolveMasks(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	s := New([]models.Observation{
		obsAt(ts, 42.5, "A"),
		obsAt(ts.Add(time.Hour), models.MaskedSentinel, "P", "Ice"),
		{Timestamp: ts.Add(2 * time.Hour)},
	}, testMetadata(ts, ts.Add(2*time.Hour)))

	s.ResolveMasks()

	if s.Observations[0].Value == nil || *s.Observations[0].Value != 42.5 {
		t.Error("ResolveMasks() should not touch real values")
	}
	if s.Observations[1].Value != nil {
		t.Error("ResolveMasks() should nil out the masked sentinel")
	}
	if !s.Observations[1].HasQualifier("Ice") {
		t.Error("ResolveMasks() should keep qualifiers on masked rows")
	}
	if s.Observations[2].Value != nil {
		t.Error("ResolveMasks() should leave missing values missing")
	}

	// Applying twice has no additional effect.
	s.ResolveMasks()
	if s.Observations[1].Value != nil {
		t.Error("second ResolveMasks() changed a resolved row")
	}
}

// TestSeries_IcedProvisionalWindow runs the full annotation pipeline on a
// short window with masked ice readings
func TestSeries_IcedProvisionalWindow(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, 1, 15, h, m, 0, 0, time.UTC)
	}

	s := New([]models.Observation{
		obsAt(at(16, 45), 2.0, "P"),
		obsAt(at(17, 0), models.MaskedSentinel, "P", "Ice"),
		obsAt(at(17, 15), models.MaskedSentinel, "P", "Ice"),
	}, testMetadata(at(16, 45), at(17, 15)))

	if got := s.CheckGaps("15min"); got != GapsNone {
		t.Errorf("CheckGaps(15min) = %v, want %v", got, GapsNone)
	}
	if got := s.Qualifier(); got != QualifierIce {
		t.Errorf("Qualifier() = %q, want %q", got, QualifierIce)
	}
	if got := s.Approval(); got != ApprovalProvisional {
		t.Errorf("Approval() = %q, want %q", got, ApprovalProvisional)
	}

	s.ResolveMasks()

	if v := s.Observations[0].Value; v == nil || *v != 2.0 {
		t.Error("real value should survive mask resolution")
	}
	if s.Observations[1].Value != nil || s.Observations[2].Value != nil {
		t.Error("masked values should resolve to missing")
	}
}

// TestSeries_MetadataSurvivesReshaping tests that derived views keep the
// full metadata record
func TestSeries_MetadataSurvivesReshaping(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2019, 1, d, 0, 0, 0, 0, time.UTC)
	}

	metadata := testMetadata(day(3), day(6))
	metadata.URL = "https://nwis.waterservices.usgs.gov/nwis/dv/?sites=01646500"

	s := New([]models.Observation{
		obsAt(day(3), 1.0),
		obsAt(day(5), 2.0),
		obsAt(day(6), 3.0),
	}, metadata)

	views := map[string]*Series{
		"copy":   s.Copy(),
		"slice":  s.Slice(day(4), day(6)),
		"filled": s.FillGaps("D"),
	}

	for name, view := range views {
		if view.Metadata.StationID != metadata.StationID {
			t.Errorf("%s lost the station ID", name)
		}
		if view.Metadata.SiteName != metadata.SiteName {
			t.Errorf("%s lost the site name", name)
		}
		if view.Metadata.URL != metadata.URL {
			t.Errorf("%s lost the query URL", name)
		}
		if view.Metadata.VariableDescription != metadata.VariableDescription {
			t.Errorf("%s lost the variable description", name)
		}
	}

	if got := views["slice"].Len(); got != 2 {
		t.Errorf("slice length = %d, want 2", got)
	}

	// Mutating a copy must not write through to the source.
	views["copy"].Observations[0].Value = nil
	if s.Observations[0].Value == nil {
		t.Error("mutating a copy changed the source series")
	}
}
