package services

import (
	"context"
	"fmt"
	"time"

	"waterdata-platform/internal/models"
	"waterdata-platform/internal/repository"
	"waterdata-platform/internal/series"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// ArchiveService persists retrieved series into Postgres
type ArchiveService struct {
	repo    repository.SeriesRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ArchiveResult contains archiving statistics
type ArchiveResult struct {
	StationID     string
	StoredRecords int
	Duration      time.Duration
}

// NewArchiveService creates a new archive service
func NewArchiveService(repo repository.SeriesRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ArchiveService {
	return &ArchiveService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// StoreSeries archives a series: the station record is upserted from the
// series metadata, then all observations are written in one batch.
func (s *ArchiveService) StoreSeries(ctx context.Context, result *series.Series) (*ArchiveResult, error) {
	startTime := time.Now()
	meta := result.Metadata

	station := &models.Station{
		StationID: meta.StationID,
		SiteName:  meta.SiteName,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.repo.UpsertStation(ctx, station); err != nil {
		s.metrics.RecordArchiveError("station_error")
		return nil, fmt.Errorf("failed to store station: %w", err)
	}

	err := s.repo.CreateObservationsBatch(ctx, meta.StationID, meta.Parameter, meta.Service, result.Observations)
	if err != nil {
		s.metrics.RecordArchiveError("batch_error")
		return nil, fmt.Errorf("failed to store observations: %w", err)
	}

	archiveResult := &ArchiveResult{
		StationID:     meta.StationID,
		StoredRecords: result.Len(),
		Duration:      time.Since(startTime),
	}

	s.logger.Info(ctx, "[ARCHIVE_COMPLETE] Series archived", logging.Fields{
		"station_id":     meta.StationID,
		"parameter":      meta.Parameter,
		"stored_records": archiveResult.StoredRecords,
		"duration_ms":    archiveResult.Duration.Milliseconds(),
	})

	return archiveResult, nil
}

// GetObservations retrieves archived observations with filtering
func (s *ArchiveService) GetObservations(ctx context.Context, filter repository.ObservationFilter) ([]*repository.StoredObservation, int, error) {
	return s.repo.GetObservations(ctx, filter)
}

// ListStations retrieves archived stations with pagination
func (s *ArchiveService) ListStations(ctx context.Context, limit, offset int) ([]*models.Station, error) {
	return s.repo.ListStations(ctx, limit, offset)
}

// HealthCheck verifies the archive backend is reachable
func (s *ArchiveService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
