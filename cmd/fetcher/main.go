package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"

	"waterdata-platform/internal/config"
	"waterdata-platform/internal/nwis"
	"waterdata-platform/internal/repository"
	"waterdata-platform/internal/series"
	"waterdata-platform/internal/services"
	"waterdata-platform/internal/wqp"
	"waterdata-platform/pkg/database"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

type args struct {
	Stations     []string `arg:"-s,--stations,required" help:"Space separated list of NWIS station IDs"`
	StartDate    string   `arg:"--start,required" help:"Start of the date range (YYYY-MM-DD)"`
	EndDate      string   `arg:"--end,required" help:"End of the date range (YYYY-MM-DD)"`
	Parameter    string   `arg:"-p,--parameter" default:"00060" help:"USGS parameter code"`
	Service      string   `arg:"--service" default:"iv" help:"Service family: iv (instantaneous) or dv (daily values)"`
	StatCode     string   `arg:"--stat" help:"Daily statistic code (dv only, defaults to 00003)"`
	Access       int      `arg:"--access" default:"0" help:"NWIS access level: 0 public, 1 cooperator, 2 internal"`
	GapTolerance string   `arg:"--gap-tolerance" help:"Expected sampling interval, e.g. 15min, D, PT15M"`
	FillGaps     bool     `arg:"--fill-gaps" help:"Reindex onto the full expected timestamp sequence"`
	ResolveMasks bool     `arg:"--resolve-masks" help:"Convert ice-mask sentinel readings to missing values"`
	Output       string   `arg:"-o,--output" help:"Directory CSV exports are written to"`
	Archive      bool     `arg:"--archive" help:"Store fetched series in PostgreSQL"`
}

// exportRow is the flattened CSV shape written by --output.
type exportRow struct {
	StationID  string   `csv:"station_id"`
	Parameter  string   `csv:"parameter"`
	Timestamp  string   `csv:"timestamp"`
	Value      *float64 `csv:"value"`
	Qualifiers string   `csv:"qualifiers"`
}

func newBar(size int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(size,
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

func main() {
	var cli args
	arg.MustParse(&cli)

	startDate, err := time.Parse("2006-01-02", cli.StartDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid start date %q: %v\n", cli.StartDate, err)
		os.Exit(1)
	}
	endDate, err := time.Parse("2006-01-02", cli.EndDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid end date %q: %v\n", cli.EndDate, err)
		os.Exit(1)
	}

	statCode := cli.StatCode
	if cli.Service == nwis.ServiceDV && statCode == "" {
		statCode = "00003"
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Environment defaults for flags left unset
	gapTolerance := cli.GapTolerance
	if gapTolerance == "" {
		gapTolerance = cfg.NWIS.GapTolerance
	}
	access := cli.Access
	if access == 0 {
		access = cfg.NWIS.AccessLevel
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("waterdata-fetcher", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[FETCHER_START] Starting water data retrieval", logging.Fields{
		"version":   "1.0.0",
		"stations":  len(cli.Stations),
		"service":   cli.Service,
		"parameter": cli.Parameter,
		"start":     cli.StartDate,
		"end":       cli.EndDate,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("waterdata_fetcher")

	// Initialize upstream clients
	nwisClient := nwis.NewClient(logger, metricsCollector)
	if cfg.NWIS.BaseURL != "" {
		nwisClient.BaseURL = cfg.NWIS.BaseURL
	}
	wqpClient := wqp.NewClient(logger, metricsCollector)

	retrievalService := services.NewRetrievalService(nwisClient, wqpClient, logger, metricsCollector)

	// The archive is optional. Only connect to PostgreSQL when asked to store.
	var archiveService *services.ArchiveService
	if cli.Archive {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[FETCHER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		seriesRepo := repository.NewSeriesRepository(db, logger, metricsCollector)
		archiveService = services.NewArchiveService(seriesRepo, logger, metricsCollector)
	}

	if cli.Output != "" {
		if err := os.MkdirAll(cli.Output, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	bar := newBar(len(cli.Stations), "Fetching stations")

	var (
		fetched       int
		failed        int
		totalRows     int
		stored        int
		stationErrors []string
	)

	startTime := time.Now()

	for _, stationID := range cli.Stations {
		result, err := retrievalService.FetchSeries(ctx, services.RetrievalOptions{
			Query: nwis.Query{
				StationID: stationID,
				StartDate: startDate,
				EndDate:   endDate,
				Parameter: cli.Parameter,
				StatCode:  statCode,
				Service:   cli.Service,
				Access:    access,
			},
			GapTolerance: gapTolerance,
			FillGaps:     cli.FillGaps,
			ResolveMasks: cli.ResolveMasks,
		})
		if err != nil {
			failed++
			stationErrors = append(stationErrors, fmt.Sprintf("%s: %v", stationID, err))
			bar.Add(1)
			continue
		}

		fetched++
		totalRows += result.Len()

		if cli.Output != "" {
			if err := writeCSV(cli.Output, result); err != nil {
				stationErrors = append(stationErrors, fmt.Sprintf("%s: csv export: %v", stationID, err))
			}
		}

		if archiveService != nil {
			archived, err := archiveService.StoreSeries(ctx, result)
			if err != nil {
				stationErrors = append(stationErrors, fmt.Sprintf("%s: archive: %v", stationID, err))
			} else {
				stored += archived.StoredRecords
			}
		}

		bar.Add(1)
	}

	duration := time.Since(startTime)

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("RETRIEVAL COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Stations Fetched:   %d\n", fetched)
	fmt.Printf("Stations Failed:    %d\n", failed)
	fmt.Printf("Total Observations: %d\n", totalRows)
	if archiveService != nil {
		fmt.Printf("Records Archived:   %d\n", stored)
	}
	fmt.Printf("Duration:           %v\n", duration)

	if len(stationErrors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(stationErrors))
		for i, errMsg := range stationErrors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(stationErrors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(stationErrors)-10)
		}
	}

	logger.Info(ctx, "[FETCHER_COMPLETE] Retrieval completed", logging.Fields{
		"stations_fetched": fetched,
		"stations_failed":  failed,
		"total_rows":       totalRows,
		"duration_seconds": duration.Seconds(),
	})

	if failed > 0 && fetched == 0 {
		os.Exit(1)
	}
}

func writeCSV(dir string, result *series.Series) error {
	meta := result.Metadata
	name := fmt.Sprintf("%s_%s_%s.csv", meta.StationID, meta.Parameter, meta.Service)

	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	rows := make([]exportRow, 0, result.Len())
	for _, obs := range result.Observations {
		rows = append(rows, exportRow{
			StationID:  meta.StationID,
			Parameter:  meta.Parameter,
			Timestamp:  obs.Timestamp.Format("2006-01-02 15:04:05"),
			Value:      obs.Value,
			Qualifiers: strings.Join(obs.Qualifiers, ";"),
		})
	}

	return gocsv.Marshal(rows, file)
}
