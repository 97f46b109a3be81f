package metrics

import "github.com/prometheus/client_golang/prometheus"

// Extraction pipeline metrics.
var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by kind (image/pdf), extraction path and outcome",
		},
		[]string{"kind", "path", "status"},
	)

	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent turning one document into text",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	OCRPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ocr_passes_total",
			Help:      "OCR engine invocations",
		},
		[]string{"engine", "status"},
	)

	OCRPassDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ocr_pass_duration_seconds",
			Help:      "Duration of a single OCR engine invocation",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine"},
	)

	FallbackPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pdf_fallback_pages_total",
			Help:      "PDF pages sent through OCR fallback, by outcome",
		},
		[]string{"status"}, // "ok" / "rasterize_error" / "ocr_error"
	)
)

var extractionMetricsRegistered bool

// RegisterExtractionMetrics registers the pipeline metrics. Must be called once from main.
func RegisterExtractionMetrics() {
	if extractionMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(ExtractionDuration)
	prometheus.MustRegister(OCRPassesTotal)
	prometheus.MustRegister(OCRPassDuration)
	prometheus.MustRegister(FallbackPagesTotal)
	extractionMetricsRegistered = true
}

// Status label values shared by the pipeline metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ObserveOCRPass records one engine invocation.
func ObserveOCRPass(engine string, seconds float64, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	OCRPassesTotal.WithLabelValues(engine, status).Inc()
	OCRPassDuration.WithLabelValues(engine).Observe(seconds)
}
