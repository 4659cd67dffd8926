package wqp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"waterdata-platform/internal/models"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// DefaultBaseURL is the Water Quality Portal search endpoint root.
const DefaultBaseURL = "https://www.waterqualitydata.us/data"

const defaultTimeout = 30 * time.Second

// Query holds the parameters of one WQP result search. Parameters may
// name zero, one, or several USGS parameter codes.
type Query struct {
	StationID  string
	StartDate  time.Time
	EndDate    time.Time
	Parameters []string
}

// Result is a discrete water-quality sample row from the WQP CSV payload.
type Result struct {
	StationID          string  `csv:"MonitoringLocationIdentifier" json:"station_id"`
	ParameterName      string  `csv:"CharacteristicName" json:"parameter_name"`
	Value              string  `csv:"ResultMeasureValue" json:"value"`
	Units              string  `csv:"ResultMeasure/MeasureUnitCode" json:"units"`
	DetectionCondition string  `csv:"ResultDetectionConditionText" json:"detection_condition,omitempty"`
	ParameterCode      string  `csv:"USGSPCode" json:"parameter_code"`
	ActivityDate       string  `csv:"ActivityStartDate" json:"-"`
	ActivityTime       string  `csv:"ActivityStartTime/Time" json:"-"`

	// Timestamp combines the activity date and time columns.
	Timestamp time.Time `csv:"-" json:"timestamp"`
}

// NumericValue coerces the measured value to a float, when it is one.
// WQP serves non-detects and remarks as empty or textual values.
func (r *Result) NumericValue() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Client retrieves discrete water-quality samples from the Water Quality
// Portal CSV endpoint.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a WQP client
func NewClient(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// BuildURL generates the Result search URL. Multiple parameter codes are
// joined with semicolons; with none, the pCode filter is omitted and the
// portal returns all characteristics.
func (c *Client) BuildURL(q Query) (string, error) {
	if q.StationID == "" {
		return "", &models.ValidationError{
			Field:   "station_id",
			Value:   q.StationID,
			Message: "station id is required",
		}
	}

	params := url.Values{}
	params.Set("siteid", "USGS-"+q.StationID)
	params.Set("startDateLo", q.StartDate.Format("01-02-2006"))
	params.Set("startDateHi", q.EndDate.Format("01-02-2006"))
	if len(q.Parameters) > 0 {
		params.Set("pCode", strings.Join(q.Parameters, ";"))
	}
	params.Set("mimeType", "csv")

	return fmt.Sprintf("%s/Result/search?%s", c.BaseURL, params.Encode()), nil
}

// GetResults performs one synchronous search and decodes the CSV payload.
// An empty result set is not fatal here: unlike an empty NWIS series,
// zero discrete samples in a window is an ordinary outcome, so it only
// warns and returns an empty slice.
func (c *Client) GetResults(ctx context.Context, q Query) ([]Result, error) {
	queryURL, err := c.BuildURL(q)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build WQP request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetchError("network_error", "wqp")
		return nil, fmt.Errorf("WQP request failed for %s: %w", q.StationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordFetchError("http_error", "wqp")
		return nil, &models.FetchError{
			URL:        queryURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading WQP response failed for %s: %w", q.StationID, err)
	}

	var results []Result
	if err := gocsv.UnmarshalBytes(body, &results); err != nil {
		c.metrics.RecordFetchError("decode_error", "wqp")
		return nil, fmt.Errorf("failed to decode WQP CSV from %s: %w", queryURL, err)
	}

	for i := range results {
		results[i].Timestamp = combineActivityTimestamp(results[i].ActivityDate, results[i].ActivityTime)
	}

	duration := time.Since(startTime)
	c.metrics.FetchDuration.WithLabelValues("wqp").Observe(duration.Seconds())
	c.metrics.RecordFetchRequest("wqp", strconv.Itoa(resp.StatusCode))

	if len(results) == 0 {
		c.logger.Warn(ctx, "[WQP_EMPTY] No data found", logging.Fields{
			"station_id": q.StationID,
			"url":        queryURL,
		})
		return results, nil
	}

	c.logger.Info(ctx, "[WQP_FETCH_SUCCESS] Results retrieved", logging.Fields{
		"station_id":  q.StationID,
		"row_count":   len(results),
		"duration_ms": duration.Milliseconds(),
	})

	return results, nil
}

// combineActivityTimestamp joins the WQP activity date and time columns
// into a naive timestamp. Samples without a time stamp resolve to
// midnight.
func combineActivityTimestamp(date, clock string) time.Time {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		ts, _ := time.Parse("2006-01-02", date)
		return ts
	}
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	ts, _ := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	return ts
}
