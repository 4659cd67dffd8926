package nwis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"waterdata-platform/internal/models"
	"waterdata-platform/internal/series"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// NWIS time-series service families.
const (
	ServiceIV = "iv"
	ServiceDV = "dv"
)

// NWIS access levels. Public access serves ice-affected readings as
// -999999 masked values; elevated levels return actual values.
const (
	AccessPublic     = 0
	AccessCooperator = 1
	AccessInternal   = 2
)

// DefaultBaseURL is the NWIS water services endpoint root.
const DefaultBaseURL = "https://nwis.waterservices.usgs.gov/nwis"

const defaultTimeout = 30 * time.Second

// Query holds the parameters of one NWIS retrieval.
type Query struct {
	StationID string
	StartDate time.Time
	EndDate   time.Time
	Parameter string
	StatCode  string
	Service   string
	Access    int
}

// Validate checks the query before any network call.
func (q *Query) Validate() error {
	if q.Service != ServiceIV && q.Service != ServiceDV {
		return &models.InvalidServiceError{Service: q.Service}
	}
	if q.StationID == "" {
		return &models.ValidationError{
			Field:   "station_id",
			Value:   q.StationID,
			Message: "station id is required",
		}
	}
	return nil
}

// Client retrieves time-series data from the NWIS instantaneous and
// daily-values JSON endpoints. One GET per retrieval, no retries.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates an NWIS client
func NewClient(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// BuildURL generates the query URL for the chosen service endpoint.
// Fails with InvalidServiceError before any network call when the
// service key is unrecognized.
func (c *Client) BuildURL(q Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("sites", q.StationID)
	params.Set("parameterCd", q.Parameter)
	params.Set("startDT", q.StartDate.Format("2006-01-02"))
	params.Set("endDT", q.EndDate.Format("2006-01-02"))
	params.Set("siteStatus", "all")
	params.Set("access", strconv.Itoa(q.Access))
	if q.Service == ServiceDV {
		params.Set("statCd", q.StatCode)
	}

	return fmt.Sprintf("%s/%s/?%s", c.BaseURL, q.Service, params.Encode()), nil
}

// GetSeries performs one synchronous retrieval: build the URL, fetch it,
// flatten the JSON body into observation rows and extract the series
// metadata. A non-2xx status is a FetchError; zero flattened rows is a
// NoDataError. Both are fatal, no partial result is returned.
func (c *Client) GetSeries(ctx context.Context, q Query) (*series.Series, error) {
	queryURL, err := c.BuildURL(q)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	c.logger.Debug(ctx, "[NWIS_FETCH] Requesting series", logging.Fields{
		"station_id": q.StationID,
		"service":    q.Service,
		"parameter":  q.Parameter,
		"url":        queryURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build NWIS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetchError("network_error", q.Service)
		return nil, fmt.Errorf("NWIS request failed for %s: %w", q.StationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordFetchError("http_error", q.Service)
		return nil, &models.FetchError{
			URL:        queryURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	var body responseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.RecordFetchError("decode_error", q.Service)
		return nil, fmt.Errorf("failed to decode NWIS response from %s: %w", queryURL, err)
	}

	observations, err := body.flatten()
	if err != nil {
		c.metrics.RecordFetchError("flatten_error", q.Service)
		return nil, err
	}

	if len(observations) == 0 {
		c.metrics.RecordFetchError("no_data", q.Service)
		return nil, &models.NoDataError{
			URL:        queryURL,
			StatusCode: resp.StatusCode,
		}
	}

	siteName, latitude, longitude, varDescription := body.metadata()

	metadata := models.SeriesMetadata{
		StationID: q.StationID,
		// Recorded span is the observed index bounds; gap detection
		// runs against these, not the query dates.
		StartDate:           observations[0].Timestamp,
		EndDate:             observations[len(observations)-1].Timestamp,
		Parameter:           q.Parameter,
		StatCode:            q.StatCode,
		Service:             q.Service,
		Access:              q.Access,
		URL:                 queryURL,
		SiteName:            siteName,
		Latitude:            latitude,
		Longitude:           longitude,
		VariableDescription: varDescription,
	}

	duration := time.Since(startTime)
	c.metrics.FetchDuration.WithLabelValues(q.Service).Observe(duration.Seconds())
	c.metrics.RecordFetchRequest(q.Service, strconv.Itoa(resp.StatusCode))

	c.logger.Info(ctx, "[NWIS_FETCH_SUCCESS] Series retrieved", logging.Fields{
		"station_id":  q.StationID,
		"service":     q.Service,
		"site_name":   siteName,
		"row_count":   len(observations),
		"duration_ms": duration.Milliseconds(),
	})

	return series.New(observations, metadata).WithLogger(c.logger), nil
}
