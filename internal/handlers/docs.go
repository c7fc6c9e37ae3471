package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Q&A API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Agri/Climate Q&A API",
			"description": "Natural-language question answering over a merged agricultural and climate dataset",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "AgriClimate Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/ask": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Ask a question",
					"description": "Answers a natural-language question against the merged crop/rainfall/soil dataset",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{"question"},
									"properties": map[string]interface{}{
										"question": map[string]string{"type": "string"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Synthesized answer with traceability. execution_error is non-null when the generated query failed at runtime; this is still a successful response.",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"answer":          map[string]string{"type": "string"},
											"data_result":     map[string]string{"type": "string"},
											"generated_query": map[string]string{"type": "string"},
											"execution_error": map[string]interface{}{"type": "string", "nullable": true},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Missing or invalid question field (error code invalid_request)"},
						"500": map[string]interface{}{"description": "Backend credentials unset (error code not_configured)"},
						"502": map[string]interface{}{"description": "Model backend unavailable after retries (error code backend_unavailable)"},
						"503": map[string]interface{}{"description": "Master dataset not loaded (error code data_unavailable)"},
					},
				},
			},
			"/api/reload": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Reload the dataset",
					"description": "Reruns the full integration pipeline and atomically replaces the master table snapshot",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Reload succeeded",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"merged_rows":      map[string]string{"type": "integer"},
											"merged_columns":   map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
											"duration_seconds": map[string]string{"type": "number"},
										},
									},
								},
							},
						},
						"500": map[string]interface{}{"description": "Reload failed; the previous snapshot (if any) is kept"},
					},
				},
			},
			"/api/schema": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Describe the master table",
					"description": "Returns the current snapshot's column list, row count and build time",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Snapshot description",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"columns":   map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
											"row_count": map[string]string{"type": "integer"},
											"built_at":  map[string]string{"type": "string", "format": "date-time"},
											"sources":   map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
										},
									},
								},
							},
						},
						"503": map[string]interface{}{"description": "Master dataset not loaded"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running and whether data is available",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status":         map[string]string{"type": "string"},
											"data_available": map[string]string{"type": "boolean"},
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
