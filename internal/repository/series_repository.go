package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"waterdata-platform/internal/models"
	"waterdata-platform/pkg/database"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// SeriesRepository provides data access for archived water data
type SeriesRepository interface {
	// Station operations
	UpsertStation(ctx context.Context, station *models.Station) error
	GetStation(ctx context.Context, stationID string) (*models.Station, error)
	ListStations(ctx context.Context, limit, offset int) ([]*models.Station, error)

	// Observation operations
	CreateObservationsBatch(ctx context.Context, stationID, parameter, service string, observations []models.Observation) error
	GetObservations(ctx context.Context, filter ObservationFilter) ([]*StoredObservation, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// ObservationFilter defines filters for querying archived observations
type ObservationFilter struct {
	StationID *string
	Parameter *string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// StoredObservation is an archived observation row. Value is NULL for
// gap-filled or mask-resolved rows; qualifiers are kept as a text array.
type StoredObservation struct {
	ID              int64          `json:"id" db:"id"`
	StationID       string         `json:"station_id" db:"station_id"`
	Parameter       string         `json:"parameter" db:"parameter"`
	Service         string         `json:"service" db:"service"`
	ObservationTime time.Time      `json:"observation_time" db:"observation_time"`
	Value           *float64       `json:"value,omitempty" db:"value"`
	Qualifiers      pq.StringArray `json:"qualifiers" db:"qualifiers"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// seriesRepository implements SeriesRepository
type seriesRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSeriesRepository creates a new series repository
func NewSeriesRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SeriesRepository {
	return &seriesRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// UpsertStation creates or refreshes a monitoring station
func (r *seriesRepository) UpsertStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO water_stations (station_id, site_name, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (station_id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_station", query,
		station.StationID,
		station.SiteName,
		station.Latitude,
		station.Longitude,
		station.CreatedAt,
		station.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert station: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_STATION] Station stored", logging.Fields{
		"station_id": station.StationID,
		"site_name":  station.SiteName,
	})

	return nil
}

// GetStation retrieves a monitoring station by ID
func (r *seriesRepository) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	query := `
		SELECT station_id, site_name, latitude, longitude, created_at, updated_at
		FROM water_stations
		WHERE station_id = $1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "water_station",
			ID:       stationID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}

// ListStations retrieves all monitoring stations with pagination
func (r *seriesRepository) ListStations(ctx context.Context, limit, offset int) ([]*models.Station, error) {
	query := `
		SELECT station_id, site_name, latitude, longitude, created_at, updated_at
		FROM water_stations
		ORDER BY station_id
		LIMIT $1 OFFSET $2
	`

	var stations []*models.Station
	err := r.db.SelectContext(ctx, "list_stations", &stations, query, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// CreateObservationsBatch archives a series' observations in one transaction
func (r *seriesRepository) CreateObservationsBatch(ctx context.Context, stationID, parameter, service string, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.ArchiveBatchSize.Observe(float64(len(observations)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"station_id":  stationID,
			"count":       len(observations),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO water_observations (
			station_id, parameter, service, observation_time, value, qualifiers, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (station_id, parameter, service, observation_time) DO UPDATE SET
			value = EXCLUDED.value,
			qualifiers = EXCLUDED.qualifiers
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()

	// Execute batch
	for _, obs := range observations {
		_, err := stmt.ExecContext(ctx,
			stationID,
			parameter,
			service,
			obs.Timestamp,
			obs.Value,
			pq.Array(obs.Qualifiers),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ArchiveRecordsTotal.Add(float64(len(observations)))

	return nil
}

// GetObservations retrieves archived observations with filtering and pagination
func (r *seriesRepository) GetObservations(ctx context.Context, filter ObservationFilter) ([]*StoredObservation, int, error) {
	// Build query with filters
	query := `
		SELECT id, station_id, parameter, service, observation_time, value, qualifiers, created_at
		FROM water_observations
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND station_id = $%d", argNum)
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Parameter != nil {
		query += fmt.Sprintf(" AND parameter = $%d", argNum)
		args = append(args, *filter.Parameter)
		argNum++
	}

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND observation_time >= $%d", argNum)
		args = append(args, *filter.StartTime)
		argNum++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND observation_time <= $%d", argNum)
		args = append(args, *filter.EndTime)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_observations", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count observations: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY observation_time, station_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	// Execute query
	var observations []*StoredObservation
	err = r.db.SelectContext(ctx, "get_observations", &observations, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get observations: %w", err)
	}

	return observations, totalCount, nil
}

// HealthCheck performs a repository health check
func (r *seriesRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
