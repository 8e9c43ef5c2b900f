package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dj-ccs/open-science-dlt/se3"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testServer() http.Handler {
	return newHTTPServer(se3.DefaultConfig(), nil)
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v\nbody: %s", err, rec.Body.String())
	}
	return body
}

const sampleTrajectoryJSON = `{
	"trajectory_data": {
		"poses": [
			{"rotation": [0.1, 0, 0], "translation": [0.5, 0, 0]},
			{"rotation": [0, 0.1, 0], "translation": [0, 0.5, 0]},
			{"rotation": [-0.1, 0, 0], "translation": [-0.5, 0, 0]},
			{"rotation": [0, -0.1, 0], "translation": [0, -0.5, 0]}
		]
	}
}`

// ---------------------------------------------------------------------------
// Health and version
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodGet, "/api/v1/science/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["service"] != serviceName {
		t.Errorf("service field = %v, want %q", body["service"], serviceName)
	}
	if body["timestamp"] == "" {
		t.Error("timestamp field missing")
	}
}

func TestVersionEndpoint(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodGet, "/api/v1/science/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["version"] != serviceVersion {
		t.Errorf("version field = %v, want %q", body["version"], serviceVersion)
	}
	if _, ok := body["mathematical_foundation"]; !ok {
		t.Error("mathematical_foundation field missing")
	}
}

// ---------------------------------------------------------------------------
// Metrics endpoint
// ---------------------------------------------------------------------------

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/metrics", sampleTrajectoryJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["status"] != "success" {
		t.Errorf("status field = %v, want success", body["status"])
	}

	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data field missing or not an object: %v", body["data"])
	}
	lambda, ok := data["optimal_lambda"].(float64)
	if !ok {
		t.Fatal("optimal_lambda missing from response")
	}
	if lambda < 0.1 || lambda > 2.0 {
		t.Errorf("optimal_lambda = %v, want within [0.1, 2.0]", lambda)
	}
	if _, ok := data["confidence"].(float64); !ok {
		t.Error("confidence missing from response")
	}
}

func TestMetricsEndpointOptions(t *testing.T) {
	payload := `{
		"trajectory_data": {
			"poses": [{"rotation": [0, 0, 0], "translation": [5, 0, 0]}]
		},
		"options": {"bounded": false, "enable_verification_cascade": false}
	}`
	rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/metrics", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with bounds disabled\nbody: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	if _, present := data["verification"]; present {
		t.Error("verification present despite enable_verification_cascade: false")
	}
}

func TestMetricsEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantKind   string
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       "",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "malformed JSON",
			method:     http.MethodPost,
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing trajectory_data",
			method:     http.MethodPost,
			body:       `{"options": {}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown encoding",
			method:     http.MethodPost,
			body:       `{"trajectory_data": {}}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "unsupported_format",
		},
		{
			name:       "out-of-bounds trajectory",
			method:     http.MethodPost,
			body:       `{"trajectory_data": {"poses": [{"rotation": [0,0,0], "translation": [5,0,0]}]}}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "bounds_violation",
		},
		{
			name:       "bad rotation arity",
			method:     http.MethodPost,
			body:       `{"trajectory_data": {"poses": [{"rotation": [0,0], "translation": [0.1,0,0]}]}}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "dimension_mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, testServer(), tt.method, "/api/v1/science/metrics", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" {
				body := decodeBody(t, rec)
				if body["kind"] != tt.wantKind {
					t.Errorf("kind = %v, want %q", body["kind"], tt.wantKind)
				}
				if body["status"] != "validation_error" {
					t.Errorf("status field = %v, want validation_error", body["status"])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Batch endpoint
// ---------------------------------------------------------------------------

func TestBatchEndpoint(t *testing.T) {
	payload := `{
		"trajectories": [
			{"poses": [{"rotation": [0.1, 0, 0], "translation": [0.5, 0, 0]}]},
			{"poses": [{"rotation": [0, 0.1, 0], "translation": [0, 0.5, 0]}]},
			{"poses": []}
		]
	}`
	rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/metrics/batch", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(3) {
		t.Errorf("count = %v, want 3", body["count"])
	}

	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 3 {
		t.Fatalf("data = %v, want 3 results", body["data"])
	}

	// The empty trajectory fails in isolation; the others succeed.
	last := data[2].(map[string]interface{})
	if last["error"] == nil || last["error"] == "" {
		t.Error("expected an error on the empty trajectory result")
	}
	first := data[0].(map[string]interface{})
	if first["metrics"] == nil {
		t.Error("expected metrics on the first result")
	}
}

func TestBatchEndpointEmpty(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/metrics/batch", `{"trajectories": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an empty batch", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Plot endpoint
// ---------------------------------------------------------------------------

func TestPlotEndpoint(t *testing.T) {
	t.Run("svg by default", func(t *testing.T) {
		rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/trajectory/plot", sampleTrajectoryJSON)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("Content-Type = %q, want image/svg+xml", ct)
		}
		if !strings.Contains(rec.Body.String(), "<svg") {
			t.Error("response body missing <svg element")
		}
	})

	t.Run("png on request", func(t *testing.T) {
		rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/trajectory/plot?format=png", sampleTrajectoryJSON)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		// PNG signature.
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
			t.Error("response body is not a PNG")
		}
	})

	t.Run("invalid trajectory", func(t *testing.T) {
		rec := doRequest(t, testServer(), http.MethodPost, "/api/v1/science/trajectory/plot", `{"trajectory_data": {}}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestCORSMiddleware(t *testing.T) {
	rec := doRequest(t, testServer(), http.MethodOptions, "/api/v1/science/metrics", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", origin)
	}

	t.Run("configured origin", func(t *testing.T) {
		config := se3.DefaultConfig()
		config.HTTP.AllowedOrigins = []string{"https://dashboard.example.org"}
		rec := doRequest(t, newHTTPServer(config, nil), http.MethodGet, "/api/v1/science/health", "")
		if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://dashboard.example.org" {
			t.Errorf("Access-Control-Allow-Origin = %q, want the configured origin", origin)
		}
	})
}

// ---------------------------------------------------------------------------
// Publisher integration
// ---------------------------------------------------------------------------

func TestMetricsEndpointPublishes(t *testing.T) {
	client := se3.NewMockClient()
	client.SetConnected(true)
	publisher := se3.NewPublisher(client, "test")

	handler := newHTTPServer(se3.DefaultConfig(), publisher)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/science/metrics", sampleTrajectoryJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	messages := client.PublishedMessages()
	if len(messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(messages))
	}
	if messages[0].Topic != "test/metrics/api" {
		t.Errorf("topic = %q, want test/metrics/api", messages[0].Topic)
	}
}
