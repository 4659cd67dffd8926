package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Water Data Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Water Data Platform API",
			"description": "Retrieval and annotation of USGS NWIS/WQP water-observation time series with gap detection, approval classification, and ice-mask resolution",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Water Data Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/series": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Retrieve an NWIS time series",
					"description": "Fetch instantaneous or daily values live from NWIS, with optional gap filling and mask resolution",
					"parameters": []map[string]interface{}{
						{
							"name":        "station_id",
							"in":          "query",
							"description": "NWIS station ID",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Start of the date range (YYYY-MM-DD)",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "End of the date range (YYYY-MM-DD)",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "parameter",
							"in":          "query",
							"description": "USGS parameter code, e.g. 00060 for discharge",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "service",
							"in":          "query",
							"description": "Service family: iv (instantaneous) or dv (daily values)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"iv", "dv"}, "default": "iv"},
						},
						{
							"name":        "stat_code",
							"in":          "query",
							"description": "Daily statistic code (dv only, default 00003 = mean)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "access",
							"in":          "query",
							"description": "NWIS access level: 0 public, 1 cooperator, 2 internal",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 0},
						},
						{
							"name":        "gap_tolerance",
							"in":          "query",
							"description": "Expected sampling interval for gap detection, e.g. 15min, D, PT15M",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "fill_gaps",
							"in":          "query",
							"description": "Reindex onto the full expected timestamp sequence",
							"required":    false,
							"schema":      map[string]interface{}{"type": "boolean", "default": false},
						},
						{
							"name":        "resolve_masks",
							"in":          "query",
							"description": "Convert ice-mask sentinel readings to missing values",
							"required":    false,
							"schema":      map[string]interface{}{"type": "boolean", "default": false},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful retrieval",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"metadata": map[string]interface{}{
												"type": "object",
												"properties": map[string]interface{}{
													"station_id":           map[string]string{"type": "string"},
													"site_name":            map[string]string{"type": "string"},
													"latitude":             map[string]string{"type": "number"},
													"longitude":            map[string]string{"type": "number"},
													"variable_description": map[string]string{"type": "string"},
													"url":                  map[string]string{"type": "string"},
												},
											},
											"observations": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"timestamp":  map[string]string{"type": "string", "format": "date-time"},
														"value":      map[string]interface{}{"type": "number", "nullable": true},
														"qualifiers": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
													},
												},
											},
											"approval":  map[string]interface{}{"type": "string", "enum": []string{"Provisional", "Approved"}},
											"qualifier": map[string]interface{}{"type": "string", "enum": []string{"Ice", "None"}},
											"gaps":      map[string]interface{}{"type": "string", "enum": []string{"Present", "None", "Unknown"}},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid query (unknown service key, missing station, bad dates)"},
						"404": map[string]interface{}{"description": "No data in the requested window"},
						"502": map[string]interface{}{"description": "NWIS returned a non-2xx status"},
					},
				},
			},
			"/api/quality": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Retrieve Water Quality Portal samples",
					"description": "Fetch discrete water-quality results for a station as decoded from the WQP CSV endpoint",
					"parameters": []map[string]interface{}{
						{
							"name":        "station_id",
							"in":          "query",
							"description": "USGS station ID (prefixed USGS- upstream)",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Start of the date range (YYYY-MM-DD)",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "End of the date range (YYYY-MM-DD)",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "pcode",
							"in":          "query",
							"description": "Comma-separated USGS parameter codes; omit for all characteristics",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful retrieval (possibly empty)"},
						"502": map[string]interface{}{"description": "WQP returned a non-2xx status"},
					},
				},
			},
			"/api/observations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get archived observations",
					"description": "Retrieve previously archived observations with filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":        "station_id",
							"in":          "query",
							"description": "Filter by station ID",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "parameter",
							"in":          "query",
							"description": "Filter by USGS parameter code",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Filter by start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Filter by end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":               map[string]string{"type": "integer"},
														"station_id":       map[string]string{"type": "string"},
														"parameter":        map[string]string{"type": "string"},
														"service":          map[string]string{"type": "string"},
														"observation_time": map[string]string{"type": "string", "format": "date-time"},
														"value":            map[string]interface{}{"type": "number", "nullable": true},
														"qualifiers":       map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
														"created_at":       map[string]string{"type": "string", "format": "date-time"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get archived stations",
					"description": "List monitoring stations whose series have been archived",
					"parameters": []map[string]interface{}{
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
