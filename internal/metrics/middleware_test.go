package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/ocr", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/ocr", "200"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ocr", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/ocr", "200"))
	if after-before != 1 {
		t.Errorf("expected http_requests_total to grow by 1, grew by %f", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("expected in-flight gauge back at 0, got %f", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Post("/ocr", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.WriteHeader(http.StatusOK) // ignored, first status wins
	})

	tests := []struct {
		method string
		path   string
		status string
	}{
		{"GET", "/health", "503"},
		{"POST", "/ocr", "413"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status)); v < 1 {
				t.Errorf("expected a %s sample for %s, got %f", tc.status, tc.path, v)
			}
		})
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", http.NoBody))

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")); v < 1 {
		t.Errorf("expected unmatched request under the unknown label, got %f", v)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/ocr", "/ocr"},
		{"/health", "/health"},
	}
	for _, tc := range tests {
		if got := routeLabel(tc.input); got != tc.expected {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RegisterExtractionMetrics()
	RegisterExtractionMetrics() // second call is a no-op

	DocumentsTotal.WithLabelValues("image", "image", StatusOK).Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "billocr_documents_total") {
		t.Error("expected billocr_documents_total in exposition")
	}
}

func TestObserveOCRPass(t *testing.T) {
	okBefore := testutil.ToFloat64(OCRPassesTotal.WithLabelValues("test-engine", StatusOK))
	errBefore := testutil.ToFloat64(OCRPassesTotal.WithLabelValues("test-engine", StatusError))

	ObserveOCRPass("test-engine", 0.2, nil)
	ObserveOCRPass("test-engine", 0.3, errors.New("boom"))

	if d := testutil.ToFloat64(OCRPassesTotal.WithLabelValues("test-engine", StatusOK)) - okBefore; d != 1 {
		t.Errorf("ok passes grew by %f, want 1", d)
	}
	if d := testutil.ToFloat64(OCRPassesTotal.WithLabelValues("test-engine", StatusError)) - errBefore; d != 1 {
		t.Errorf("error passes grew by %f, want 1", d)
	}
}
