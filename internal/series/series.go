package series

import (
	"context"
	"time"

	"waterdata-platform/internal/models"
	"waterdata-platform/pkg/logging"
)

// Approval and qualifier flags derived from observation qualifier sets.
const (
	ApprovalProvisional = "Provisional"
	ApprovalApproved    = "Approved"
	QualifierIce        = "Ice"
	QualifierNone       = "None"
)

// GapStatus is the three-valued result of a gap check. False and Unknown
// are both valid "no gaps found" shapes that must stay distinguishable:
// GapsUnknown means no tolerance could be resolved, not that the index
// is complete.
type GapStatus int

const (
	GapsUnknown GapStatus = iota
	GapsNone
	GapsPresent
)

// String returns string representation of gap status
func (g GapStatus) String() string {
	switch g {
	case GapsNone:
		return "None"
	case GapsPresent:
		return "Present"
	default:
		return "Unknown"
	}
}

// Series holds a timestamp-ordered observation table and its metadata as
// one logical unit. Derived views (FillGaps, Slice, Copy) always carry the
// original metadata record: metadata is not row-indexed data and must not
// be dropped by table operations.
type Series struct {
	Observations []models.Observation
	Metadata     models.SeriesMetadata

	logger *logging.StructuredLogger
}

// New creates a series from an observation table and its metadata.
func New(observations []models.Observation, metadata models.SeriesMetadata) *Series {
	return &Series{
		Observations: observations,
		Metadata:     metadata,
	}
}

// WithLogger attaches a structured logger used for gap warnings.
func (s *Series) WithLogger(logger *logging.StructuredLogger) *Series {
	s.logger = logger
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Observations)
}

// Copy returns a new series with a copied observation table and the same
// metadata record.
func (s *Series) Copy() *Series {
	observations := make([]models.Observation, len(s.Observations))
	copy(observations, s.Observations)
	return &Series{
		Observations: observations,
		Metadata:     s.Metadata,
		logger:       s.logger,
	}
}

// Slice returns a new series restricted to observations within
// [start, end], inclusive. Metadata is carried over unchanged.
func (s *Series) Slice(start, end time.Time) *Series {
	observations := make([]models.Observation, 0, len(s.Observations))
	for _, obs := range s.Observations {
		if obs.Timestamp.Before(start) || obs.Timestamp.After(end) {
			continue
		}
		observations = append(observations, obs)
	}
	return &Series{
		Observations: observations,
		Metadata:     s.Metadata,
		logger:       s.logger,
	}
}

// Approval checks the approval level of the series.
// Returns "Provisional" if ANY observation carries a "P" qualifier,
// else "Approved". The result is cached in the metadata; recomputation
// is idempotent.
func (s *Series) Approval() string {
	approval := ApprovalApproved
	for _, obs := range s.Observations {
		if obs.HasQualifier(models.QualifierProvisional) {
			approval = ApprovalProvisional
			break
		}
	}
	s.Metadata.Approval = approval
	return approval
}

// Qualifier checks whether qualifiers are applied to the data.
// Returns "Ice" if ANY observation carries an ice qualifier, else "None".
// Currently only checking for Ice qualifiers; may need to add more for
// equipment malfunctions, etc.
func (s *Series) Qualifier() string {
	qualifier := QualifierNone
	for _, obs := range s.Observations {
		if obs.HasQualifier(models.QualifierIce) || obs.HasQualifier(models.QualifierIceShort) {
			qualifier = QualifierIce
			break
		}
	}
	s.Metadata.Qualifier = qualifier
	return qualifier
}

// GapIndex returns the timestamps missing from the observation index:
// the full expected sequence between the series start and end dates at
// the given tolerance, minus the actual timestamps. An empty result
// means no gaps.
func (s *Series) GapIndex(tolerance string) ([]time.Time, error) {
	_, step, err := s.resolveTolerance(tolerance)
	if err != nil {
		return nil, err
	}
	return s.gapIndexForStep(step), nil
}

// CheckGaps tests the whole series index for gaps at the given tolerance.
// When neither the argument nor the metadata supplies a tolerance the
// result is GapsUnknown, with a warning: the check did not run, which is
// not the same as finding no gaps.
func (s *Series) CheckGaps(tolerance string) GapStatus {
	return s.CheckGapsBetween(tolerance, time.Time{}, time.Time{})
}

// CheckGapsBetween restricts the gap test to the sub-window [start, end].
// Zero bounds test the whole series. Missing timestamps within the window
// are reported through the attached logger.
func (s *Series) CheckGapsBetween(tolerance string, start, end time.Time) GapStatus {
	resolved, step, err := s.resolveTolerance(tolerance)
	if err != nil {
		s.warn("[GAP_CHECK_UNKNOWN] No gap tolerance specified", logging.Fields{
			"station_id": s.Metadata.StationID,
		})
		return GapsUnknown
	}

	missing := s.gapIndexForStep(step)
	if !start.IsZero() || !end.IsZero() {
		windowed := missing[:0:0]
		for _, ts := range missing {
			if !start.IsZero() && ts.Before(start) {
				continue
			}
			if !end.IsZero() && ts.After(end) {
				continue
			}
			windowed = append(windowed, ts)
		}
		missing = windowed
	}

	if len(missing) == 0 {
		return GapsNone
	}

	timestamps := make([]string, len(missing))
	for i, ts := range missing {
		timestamps[i] = ts.Format("2006-01-02 15:04:05")
	}
	s.warn("[GAP_CHECK_FOUND] Gaps detected", logging.Fields{
		"station_id":    s.Metadata.StationID,
		"gap_tolerance": resolved,
		"missing":       timestamps,
	})
	return GapsPresent
}

// FillGaps reindexes the series onto the full expected timestamp sequence
// at the given tolerance, inserting missing-value observations for any
// newly introduced timestamp. Existing observations keep their value and
// qualifiers. If no tolerance can be resolved the series is returned
// unchanged after a warning; unlike CheckGaps, filling is best-effort.
func (s *Series) FillGaps(tolerance string) *Series {
	resolved, step, err := s.resolveTolerance(tolerance)
	if err != nil {
		s.warn("[GAP_FILL_SKIPPED] No gap tolerance specified", logging.Fields{
			"station_id": s.Metadata.StationID,
		})
		return s
	}

	actual := make(map[time.Time]models.Observation, len(s.Observations))
	for _, obs := range s.Observations {
		actual[obs.Timestamp] = obs
	}

	expected := s.expectedIndex(step)
	observations := make([]models.Observation, 0, len(expected))
	for _, ts := range expected {
		if obs, ok := actual[ts]; ok {
			observations = append(observations, obs)
			continue
		}
		observations = append(observations, models.Observation{Timestamp: ts})
	}

	metadata := s.Metadata
	metadata.GapTolerance = resolved

	return &Series{
		Observations: observations,
		Metadata:     metadata,
		logger:       s.logger,
	}
}

// ResolveMasks converts any -999999 sentinel values to missing values.
// NWIS serves ice-qualified data as -999999 at public access level;
// cooperator or internal access returns actual values. Applying twice has
// no additional effect.
func (s *Series) ResolveMasks() {
	for i := range s.Observations {
		if s.Observations[i].IsMasked() {
			s.Observations[i].Value = nil
		}
	}
}

// resolveTolerance falls back on the metadata gap tolerance when none is
// supplied. An error means neither was available or the string did not
// parse.
func (s *Series) resolveTolerance(tolerance string) (string, time.Duration, error) {
	if tolerance == "" {
		tolerance = s.Metadata.GapTolerance
	}
	step, err := ParseTolerance(tolerance)
	if err != nil {
		return "", 0, err
	}
	return tolerance, step, nil
}

// expectedIndex generates the full timestamp sequence between the series
// start and end dates, inclusive, at the given step.
func (s *Series) expectedIndex(step time.Duration) []time.Time {
	start, end := s.Metadata.StartDate, s.Metadata.EndDate
	if start.IsZero() || end.IsZero() || end.Before(start) || step <= 0 {
		return nil
	}
	index := make([]time.Time, 0, end.Sub(start)/step+1)
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		index = append(index, ts)
	}
	return index
}

func (s *Series) gapIndexForStep(step time.Duration) []time.Time {
	actual := make(map[time.Time]struct{}, len(s.Observations))
	for _, obs := range s.Observations {
		actual[obs.Timestamp] = struct{}{}
	}
	var missing []time.Time
	for _, expected := range s.expectedIndex(step) {
		if _, ok := actual[expected]; !ok {
			missing = append(missing, expected)
		}
	}
	return missing
}

func (s *Series) warn(message string, fields logging.Fields) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(context.Background(), message, fields)
}
