package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"waterdata-platform/internal/models"
	"waterdata-platform/internal/nwis"
	"waterdata-platform/internal/repository"
	"waterdata-platform/internal/services"
	"waterdata-platform/internal/wqp"
	"waterdata-platform/pkg/logging"
	"waterdata-platform/pkg/metrics"
)

// SeriesHandler handles water data API endpoints
type SeriesHandler struct {
	retrievalService *services.RetrievalService
	archiveService   *services.ArchiveService
	logger           *logging.StructuredLogger
	metrics          *metrics.Collector
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(
	retrievalService *services.RetrievalService,
	archiveService *services.ArchiveService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *SeriesHandler {
	return &SeriesHandler{
		retrievalService: retrievalService,
		archiveService:   archiveService,
		logger:           logger,
		metrics:          metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// SeriesResponse represents a retrieved series with its quality flags
type SeriesResponse struct {
	Metadata     models.SeriesMetadata `json:"metadata"`
	Observations []models.Observation  `json:"observations"`
	Approval     string                `json:"approval"`
	Qualifier    string                `json:"qualifier"`
	Gaps         string                `json:"gaps"`
}

// GetSeries handles GET /api/series: a live NWIS retrieval
func (h *SeriesHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/series").Observe(duration.Seconds())
	}()

	query := r.URL.Query()

	stationID := query.Get("station_id")
	if stationID == "" {
		h.sendError(w, r, "station_id is required", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse("2006-01-02", query.Get("start_date"))
	if err != nil {
		h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	endDate, err := time.Parse("2006-01-02", query.Get("end_date"))
	if err != nil {
		h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	service := query.Get("service")
	if service == "" {
		service = nwis.ServiceIV
	}

	statCode := query.Get("stat_code")
	if statCode == "" && service == nwis.ServiceDV {
		statCode = "00003"
	}

	access := 0
	if accessStr := query.Get("access"); accessStr != "" {
		if a, err := strconv.Atoi(accessStr); err == nil {
			access = a
		}
	}

	opts := services.RetrievalOptions{
		Query: nwis.Query{
			StationID: stationID,
			StartDate: startDate,
			EndDate:   endDate,
			Parameter: query.Get("parameter"),
			StatCode:  statCode,
			Service:   service,
			Access:    access,
		},
		GapTolerance: query.Get("gap_tolerance"),
		FillGaps:     query.Get("fill_gaps") == "true",
		ResolveMasks: query.Get("resolve_masks") == "true",
	}

	result, err := h.retrievalService.FetchSeries(ctx, opts)
	if err != nil {
		h.sendRetrievalError(w, r, "/api/series", err)
		return
	}

	response := SeriesResponse{
		Metadata:     result.Metadata,
		Observations: result.Observations,
		Approval:     result.Metadata.Approval,
		Qualifier:    result.Metadata.Qualifier,
		Gaps:         result.CheckGaps(opts.GapTolerance).String(),
	}

	h.metrics.RecordAPIRequest("/api/series", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetWaterQuality handles GET /api/quality: a live WQP retrieval
func (h *SeriesHandler) GetWaterQuality(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/quality").Observe(duration.Seconds())
	}()

	query := r.URL.Query()

	stationID := query.Get("station_id")
	if stationID == "" {
		h.sendError(w, r, "station_id is required", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse("2006-01-02", query.Get("start_date"))
	if err != nil {
		h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	endDate, err := time.Parse("2006-01-02", query.Get("end_date"))
	if err != nil {
		h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var parameters []string
	if pcodes := query.Get("pcode"); pcodes != "" {
		parameters = strings.Split(pcodes, ",")
	}

	results, err := h.retrievalService.FetchWaterQuality(ctx, wqp.Query{
		StationID:  stationID,
		StartDate:  startDate,
		EndDate:    endDate,
		Parameters: parameters,
	})
	if err != nil {
		h.sendRetrievalError(w, r, "/api/quality", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/quality", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"data":  results,
		"total": len(results),
	}, http.StatusOK)
}

// GetObservations handles GET /api/observations: archived data
func (h *SeriesHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/observations").Observe(duration.Seconds())
	}()

	query := r.URL.Query()

	// Default pagination
	page := 1
	limit := 100

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := (page - 1) * limit

	// Build filter
	filter := repository.ObservationFilter{
		Limit:  limit,
		Offset: offset,
	}

	if stationID := query.Get("station_id"); stationID != "" {
		filter.StationID = &stationID
	}

	if parameter := query.Get("parameter"); parameter != "" {
		filter.Parameter = &parameter
	}

	if startStr := query.Get("start_date"); startStr != "" {
		startDate, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartTime = &startDate
	}

	if endStr := query.Get("end_date"); endStr != "" {
		endDate, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndTime = &endDate
	}

	observations, total, err := h.archiveService.GetObservations(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_OBSERVATIONS_ERROR] Failed to get observations", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/observations")
		h.sendError(w, r, "failed to retrieve observations", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       observations,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/observations", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStations handles GET /api/stations: archived stations
func (h *SeriesHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()

	page := 1
	limit := 100

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	stations, err := h.archiveService.ListStations(ctx, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATIONS_ERROR] Failed to list stations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations")
		h.sendError(w, r, "failed to retrieve stations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"data":  stations,
		"page":  page,
		"limit": limit,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *SeriesHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendRetrievalError maps the retrieval error taxonomy onto HTTP codes:
// bad input 400, no data 404, upstream failure 502.
func (h *SeriesHandler) sendRetrievalError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	var invalidService *models.InvalidServiceError
	var validation *models.ValidationError
	var noData *models.NoDataError
	var fetch *models.FetchError

	switch {
	case errors.As(err, &invalidService), errors.As(err, &validation):
		h.metrics.RecordAPIError("bad_request", endpoint)
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
	case errors.As(err, &noData):
		h.metrics.RecordAPIError("no_data", endpoint)
		h.sendError(w, r, err.Error(), http.StatusNotFound)
	case errors.As(err, &fetch):
		h.metrics.RecordAPIError("upstream_error", endpoint)
		h.sendError(w, r, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error(ctx, "[API_RETRIEVAL_ERROR] Retrieval failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "retrieval failed", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *SeriesHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *SeriesHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all water data API routes
func (h *SeriesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/series", h.GetSeries).Methods("GET")
	router.HandleFunc("/api/quality", h.GetWaterQuality).Methods("GET")
	router.HandleFunc("/api/observations", h.GetObservations).Methods("GET")
	router.HandleFunc("/api/stations", h.GetStations).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
