package main

import (
	"fmt"
	"time"

	"waterdata-platform/internal/models"
	"waterdata-platform/internal/series"
	"waterdata-platform/pkg/logging"
)

// DemoDataProcessing demonstrates the series pipeline without network or database
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("WATER DATA PLATFORM - SERIES PROCESSING DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.InfoLevel)

	// Fixture series: a day's worth of 15-minute discharge readings with
	// a masked ice reading and a two-slot gap.
	start := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

	observations := []models.Observation{
		sample(start, 42.5, "P"),
		sample(start.Add(15*time.Minute), 41.9, "P"),
		sample(start.Add(30*time.Minute), models.MaskedSentinel, "P", "Ice"),
		sample(start.Add(45*time.Minute), 40.8, "P"),
		// 60 and 75 minute slots never reported
		sample(start.Add(90*time.Minute), 39.6, "P"),
	}

	metadata := models.SeriesMetadata{
		StationID:           "01646500",
		StartDate:           observations[0].Timestamp,
		EndDate:             observations[len(observations)-1].Timestamp,
		Parameter:           "00060",
		Service:             "iv",
		SiteName:            "POTOMAC RIVER NEAR WASH, DC",
		VariableDescription: "Discharge, cubic feet per second",
	}

	result := series.New(observations, metadata).WithLogger(logger)

	fmt.Printf("Station: %s (%s)\n", metadata.StationID, metadata.SiteName)
	fmt.Printf("Variable: %s\n", metadata.VariableDescription)
	fmt.Printf("Observations: %d\n\n", result.Len())

	printSeries("RAW SERIES", result)

	// Classification
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("QUALITY CLASSIFICATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Printf("Approval status:    %s\n", result.Approval())
	fmt.Printf("Qualifier:          %s\n", result.Qualifier())
	fmt.Printf("Gap check (15min):  %s\n\n", result.CheckGaps("15min"))

	// Gap filling inserts missing-value rows for the unreported slots
	filled := result.FillGaps("15min")
	printSeries("AFTER GAP FILL", filled)

	// Mask resolution converts the ice sentinel to a missing value
	filled.ResolveMasks()
	printSeries("AFTER MASK RESOLUTION", filled)

	// Metadata survives reshaping
	window := filled.Slice(start, start.Add(45*time.Minute))
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("METADATA AFTER SLICING")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Printf("Station:   %s\n", window.Metadata.StationID)
	fmt.Printf("Site name: %s\n", window.Metadata.SiteName)
	fmt.Printf("Rows:      %d of %d\n", window.Len(), filled.Len())
	fmt.Println()

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ SERIES PROCESSING DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("The pipeline demonstrated:")
	fmt.Println("  ✓ Approval and qualifier classification from NWIS codes")
	fmt.Println("  ✓ Gap detection against a 15-minute tolerance")
	fmt.Println("  ✓ Gap filling with missing-value rows")
	fmt.Println("  ✓ Ice-mask sentinel resolution to NULL")
	fmt.Println("  ✓ Metadata preserved through reshaping")
	fmt.Println()
	fmt.Println("With the server running, the same pipeline serves:")
	fmt.Println("  • GET /api/series for live NWIS retrieval")
	fmt.Println("  • GET /api/quality for WQP samples")
	fmt.Println("  • PostgreSQL archival via the fetcher")
	fmt.Println()
}

func sample(ts time.Time, value float64, qualifiers ...string) models.Observation {
	v := value
	return models.Observation{
		Timestamp:  ts,
		Value:      &v,
		Qualifiers: qualifiers,
	}
}

func printSeries(title string, s *series.Series) {
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println(title)
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, obs := range s.Observations {
		fmt.Printf("  %s", obs.Timestamp.Format("2006-01-02 15:04"))
		if obs.Value != nil {
			fmt.Printf(" | %10.1f", *obs.Value)
		} else {
			fmt.Printf(" | %10s", "NULL")
		}
		if len(obs.Qualifiers) > 0 {
			fmt.Printf(" | %v", obs.Qualifiers)
		}
		fmt.Println()
	}
	fmt.Println()
}
