package services

import (
	"context"
	"time"

	"waterdata-platform/internal/nwis"
	"waterdata-platform/internal/series"
	"waterdata-platform/internal/wqp"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// RetrievalService orchestrates one NWIS retrieval: build the query URL,
// fetch, flatten to a series, then apply the requested post-processing
// (gap fill, mask resolution) and annotate quality flags.
type RetrievalService struct {
	nwisClient *nwis.Client
	wqpClient  *wqp.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// RetrievalOptions carries the query plus post-processing switches.
type RetrievalOptions struct {
	Query        nwis.Query
	GapTolerance string
	FillGaps     bool
	ResolveMasks bool
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(
	nwisClient *nwis.Client,
	wqpClient *wqp.Client,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RetrievalService {
	return &RetrievalService{
		nwisClient: nwisClient,
		wqpClient:  wqpClient,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// FetchSeries retrieves a time series and applies the requested
// processing. Gap filling requires a tolerance; without one it warns and
// leaves the series unchanged. The gap check always runs when a
// tolerance is known, so the caller sees gap warnings at fetch time.
func (s *RetrievalService) FetchSeries(ctx context.Context, opts RetrievalOptions) (*series.Series, error) {
	startTime := time.Now()

	result, err := s.nwisClient.GetSeries(ctx, opts.Query)
	if err != nil {
		return nil, err
	}

	s.metrics.FetchRowCount.Observe(float64(result.Len()))

	if opts.GapTolerance != "" {
		result.Metadata.GapTolerance = opts.GapTolerance
	}

	if opts.FillGaps {
		result = result.FillGaps(opts.GapTolerance)
	}
	if opts.ResolveMasks {
		result.ResolveMasks()
	}

	approval := result.Approval()
	qualifier := result.Qualifier()
	gaps := result.CheckGaps(opts.GapTolerance)
	s.metrics.RecordGapCheck(gaps.String())

	s.logger.Info(ctx, "[RETRIEVAL_COMPLETE] Series processed", logging.Fields{
		"station_id":  result.Metadata.StationID,
		"site_name":   result.Metadata.SiteName,
		"service":     result.Metadata.Service,
		"row_count":   result.Len(),
		"approval":    approval,
		"qualifier":   qualifier,
		"gaps":        gaps.String(),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return result, nil
}

// FetchWaterQuality retrieves discrete water-quality samples from the
// Water Quality Portal.
func (s *RetrievalService) FetchWaterQuality(ctx context.Context, query wqp.Query) ([]wqp.Result, error) {
	return s.wqpClient.GetResults(ctx, query)
}
