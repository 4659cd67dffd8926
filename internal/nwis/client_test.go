package nwis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"waterdata-platform/internal/models"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

var testMetrics = metrics.NewCollector("nwis_client_test")

func newTestClient(baseURL string) *Client {
	logger := logging.NewStructuredLogger("nwis-test", "test", logging.ErrorLevel)
	c := NewClient(logger, testMetrics)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return c
}

func testQuery(service string) Query {
	return Query{
		StationID: "01646500",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Parameter: "00060",
		StatCode:  "00003",
		Service:   service,
		Access:    AccessPublic,
	}
}

// TestClient_BuildURL tests endpoint selection and parameter encoding
func TestClient_BuildURL(t *testing.T) {
	c := newTestClient("")

	tests := []struct {
		name        string
		query       Query
		wantPath    string
		wantParams  map[string]string
		wantAbsent  []string
		wantErrType string
	}{
		{
			name:     "instantaneous values",
			query:    testQuery(ServiceIV),
			wantPath: "/nwis/iv/",
			wantParams: map[string]string{
				"format":      "json",
				"sites":       "01646500",
				"parameterCd": "00060",
				"startDT":     "2024-01-01",
				"endDT":       "2024-01-31",
				"siteStatus":  "all",
				"access":      "0",
			},
			wantAbsent: []string{"statCd"},
		},
		{
			name:     "daily values carry the statistic code",
			query:    testQuery(ServiceDV),
			wantPath: "/nwis/dv/",
			wantParams: map[string]string{
				"statCd": "00003",
			},
		},
		{
			name: "elevated access level",
			query: func() Query {
				q := testQuery(ServiceIV)
				q.Access = AccessInternal
				return q
			}(),
			wantParams: map[string]string{"access": "2"},
		},
		{
			name: "unknown service key",
			query: func() Query {
				q := testQuery("xv")
				return q
			}(),
			wantErrType: "invalid_service",
		},
		{
			name: "missing station",
			query: func() Query {
				q := testQuery(ServiceIV)
				q.StationID = ""
				return q
			}(),
			wantErrType: "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.BuildURL(tt.query)

			switch tt.wantErrType {
			case "invalid_service":
				var serviceErr *models.InvalidServiceError
				if !errors.As(err, &serviceErr) {
					t.Fatalf("BuildURL() error = %v, want InvalidServiceError", err)
				}
				if serviceErr.Service != tt.query.Service {
					t.Errorf("error service = %q, want %q", serviceErr.Service, tt.query.Service)
				}
				return
			case "validation":
				var validationErr *models.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("BuildURL() error = %v, want ValidationError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("BuildURL() error = %v", err)
			}

			parsed, err := url.Parse(got)
			if err != nil {
				t.Fatalf("BuildURL() returned unparseable URL %q: %v", got, err)
			}

			if tt.wantPath != "" && parsed.Path != tt.wantPath {
				t.Errorf("URL path = %q, want %q", parsed.Path, tt.wantPath)
			}

			params := parsed.Query()
			for key, want := range tt.wantParams {
				if got := params.Get(key); got != want {
					t.Errorf("param %s = %q, want %q", key, got, want)
				}
			}
			for _, key := range tt.wantAbsent {
				if params.Has(key) {
					t.Errorf("param %s should be absent, got %q", key, params.Get(key))
				}
			}
		})
	}
}

const seriesFixture = `{
	"value": {
		"queryInfo": {"queryURL": "https://example.test/nwis/iv/"},
		"timeSeries": [{
			"sourceInfo": {
				"siteName": "POTOMAC RIVER NEAR WASH, DC",
				"geoLocation": {"geogLocation": {"latitude": 38.94, "longitude": -77.12}}
			},
			"variable": {"variableDescription": "Discharge, cubic feet per second"},
			"values": [{
				"value": [
					{"value": "42.5", "qualifiers": ["P"], "dateTime": "2024-01-15T16:45:00.000-05:00"},
					{"value": "42.1", "qualifiers": ["P"], "dateTime": "2024-01-15T17:00:00.000-05:00"},
					{"value": "41.8", "qualifiers": ["P"], "dateTime": "2024-01-15T17:15:00.000-05:00"}
				]
			}]
		}]
	}
}`

func TestClient_GetSeries(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(seriesFixture))
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/nwis")

	result, err := c.GetSeries(context.Background(), testQuery(ServiceIV))
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}

	if requestedPath != "/nwis/iv/" {
		t.Errorf("requested path = %q, want %q", requestedPath, "/nwis/iv/")
	}

	if result.Len() != 3 {
		t.Fatalf("series length = %d, want 3", result.Len())
	}

	meta := result.Metadata
	if meta.StationID != "01646500" {
		t.Errorf("StationID = %q", meta.StationID)
	}
	if meta.SiteName != "POTOMAC RIVER NEAR WASH, DC" {
		t.Errorf("SiteName = %q", meta.SiteName)
	}
	if meta.VariableDescription != "Discharge, cubic feet per second" {
		t.Errorf("VariableDescription = %q", meta.VariableDescription)
	}
	if !strings.Contains(meta.URL, "sites=01646500") {
		t.Errorf("metadata URL = %q, should carry the query parameters", meta.URL)
	}

	// The recorded span is the observed index bounds.
	wantStart := time.Date(2024, 1, 15, 16, 45, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 15, 17, 15, 0, 0, time.UTC)
	if !meta.StartDate.Equal(wantStart) {
		t.Errorf("StartDate = %v, want %v", meta.StartDate, wantStart)
	}
	if !meta.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", meta.EndDate, wantEnd)
	}

	if got := result.Observations[0].Value; got == nil || *got != 42.5 {
		t.Error("first observation value should be 42.5")
	}
}

func TestClient_GetSeries_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": {"timeSeries": []}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/nwis")

	_, err := c.GetSeries(context.Background(), testQuery(ServiceIV))

	var noDataErr *models.NoDataError
	if !errors.As(err, &noDataErr) {
		t.Fatalf("GetSeries() error = %v, want NoDataError", err)
	}
	// The error names the URL so the caller can inspect the query.
	if !strings.Contains(noDataErr.URL, "sites=01646500") {
		t.Errorf("NoDataError URL = %q, should carry the query parameters", noDataErr.URL)
	}
	if noDataErr.IsTransient() {
		t.Error("NoDataError should not be transient")
	}
}

func TestClient_GetSeries_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/nwis")

	_, err := c.GetSeries(context.Background(), testQuery(ServiceIV))

	var fetchErr *models.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("GetSeries() error = %v, want FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, http.StatusServiceUnavailable)
	}
	if !fetchErr.IsTransient() {
		t.Error("FetchError should be transient")
	}
}

func TestClient_GetSeries_InvalidServiceBeforeNetwork(t *testing.T) {
	// The handler must never run: validation fails before any request.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server for an invalid service")
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/nwis")

	_, err := c.GetSeries(context.Background(), testQuery("xv"))

	var serviceErr *models.InvalidServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("GetSeries() error = %v, want InvalidServiceError", err)
	}
}
