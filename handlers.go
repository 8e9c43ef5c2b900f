package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dj-ccs/open-science-dlt/se3"
)

const (
	serviceName    = "SE(3) Regenerative Metrics Service"
	serviceVersion = "1.0.0"
)

// metricsRequest is the JSON envelope for the metrics endpoints.
type metricsRequest struct {
	TrajectoryData *se3.TrajectoryInput `json:"trajectory_data"`
	Options        *requestOptions      `json:"options"`
}

// batchRequest is the JSON envelope for the batch endpoint.
type batchRequest struct {
	Trajectories []se3.TrajectoryInput `json:"trajectories"`
	Options      *requestOptions       `json:"options"`
}

// requestOptions are per-request pipeline overrides; nil fields keep the
// service defaults.
type requestOptions struct {
	EnableResonanceDetection  *bool     `json:"enable_resonance_detection"`
	EnableVerificationCascade *bool     `json:"enable_verification_cascade"`
	Bounded                   *bool     `json:"bounded"`
	RMax                      *float64  `json:"r_max"`
	LambdaBounds              []float64 `json:"lambda_bounds"`
}

// apply overlays the request options onto the service defaults.
func (o *requestOptions) apply(opts *se3.MetricsOptions) {
	if o == nil {
		return
	}
	if o.EnableResonanceDetection != nil {
		opts.EnableResonanceDetection = *o.EnableResonanceDetection
	}
	if o.EnableVerificationCascade != nil {
		opts.EnableVerificationCascade = *o.EnableVerificationCascade
	}
	if o.Bounded != nil {
		opts.Bounded = *o.Bounded
	}
	if o.RMax != nil {
		opts.RMax = *o.RMax
	}
	if len(o.LambdaBounds) == 2 {
		opts.LambdaBounds = [2]float64{o.LambdaBounds[0], o.LambdaBounds[1]}
	}
}

// newHTTPServer creates an HTTP server with all endpoints.
func newHTTPServer(config *se3.Config, publisher *se3.Publisher) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/science/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   serviceName,
			"version":   serviceVersion,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/v1/science/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"service": serviceName,
			"version": serviceVersion,
			"mathematical_foundation": map[string]string{
				"principle": "SE(3) double-and-scale approximate return",
				"objective": "argmin over lambda of distance to identity of the doubled, rescaled composition",
			},
		})
	})

	mux.HandleFunc("/api/v1/science/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req metricsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		if req.TrajectoryData == nil {
			writeError(w, http.StatusBadRequest, "missing 'trajectory_data' field")
			return
		}

		opts := se3.MetricsOptionsFromConfig(config)
		req.Options.apply(&opts)

		metrics, err := se3.ComputeMetrics(*req.TrajectoryData, opts)
		if err != nil {
			writeComputeError(w, err)
			return
		}

		if publisher != nil {
			if err := publisher.PublishMetrics("api", metrics); err != nil {
				log.Printf("Error publishing metrics: %v", err)
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   metrics,
		})
	})

	mux.HandleFunc("/api/v1/science/metrics/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		if len(req.Trajectories) == 0 {
			writeError(w, http.StatusBadRequest, "missing 'trajectories' field")
			return
		}

		opts := se3.MetricsOptionsFromConfig(config)
		req.Options.apply(&opts)

		results := se3.ComputeBatch(req.Trajectories, opts)

		if publisher != nil {
			if err := publisher.PublishBatch("api", results); err != nil {
				log.Printf("Error publishing batch results: %v", err)
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   results,
			"count":  len(results),
		})
	})

	mux.HandleFunc("/api/v1/science/trajectory/plot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req metricsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		if req.TrajectoryData == nil {
			writeError(w, http.StatusBadRequest, "missing 'trajectory_data' field")
			return
		}

		opts := se3.MetricsOptionsFromConfig(config)
		req.Options.apply(&opts)

		trajectory, err := se3.EncodeTrajectory(*req.TrajectoryData, opts.Bounded, opts.RMax)
		if err != nil {
			writeComputeError(w, err)
			return
		}

		renderer := se3.NewPlotRenderer(trajectory)
		if r.URL.Query().Get("format") == "png" {
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Cache-Control", "no-cache")
			if err := renderer.RenderPNG(w); err != nil {
				log.Printf("Error rendering trajectory PNG: %v", err)
			}
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderSVG(w); err != nil {
			log.Printf("Error rendering trajectory SVG: %v", err)
		}
	})

	// Wrap mux with CORS and logging middleware.
	allowedOrigin := "*"
	if len(config.HTTP.AllowedOrigins) == 1 {
		allowedOrigin = config.HTTP.AllowedOrigins[0]
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	statusLabel := "error"
	if status == http.StatusBadRequest {
		statusLabel = "validation_error"
	}
	writeJSON(w, status, map[string]string{
		"error":  message,
		"status": statusLabel,
	})
}

// writeComputeError maps pipeline errors to status codes: tagged validation
// failures are 400, everything else 500.
func writeComputeError(w http.ResponseWriter, err error) {
	if kind, ok := se3.KindOf(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  err.Error(),
			"kind":   kind.String(),
			"status": "validation_error",
		})
		return
	}
	log.Printf("Internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
