package httpx

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	tenantSwitchesTotal     *prometheus.CounterVec
	contextResolutionsTotal *prometheus.CounterVec
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		tenantSwitchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_switches_total",
			Help: "Switches de tenant activo por resultado",
		}, []string{"result"}) // result: ok|forbidden|not_found|error

		contextResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "context_resolutions_total",
			Help: "Resoluciones de contexto por resultado",
		}, []string{"result"}) // result: ok|unauthorized|error

		registry.MustRegister(httpRequestsTotal, httpRequestDuration, tenantSwitchesTotal, contextResolutionsTotal)
	})

	gatherer, ok := registry.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// metricsResponseWriter captura el status para las métricas.
type metricsResponseWriter struct {
	http.ResponseWriter
	status int
}

func (m *metricsResponseWriter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *metricsResponseWriter) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	return m.ResponseWriter.Write(b)
}

// withMetrics instrumenta cada request con counter + histograma.
// path es el patrón de la ruta, no el path crudo (evita cardinalidad).
func withMetrics(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		mw := &metricsResponseWriter{ResponseWriter: w}

		next.ServeHTTP(mw, r)

		status := mw.status
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())

		switch path {
		case "/v1/tenants/switch":
			tenantSwitchesTotal.WithLabelValues(switchResult(status)).Inc()
		case "/v1/context":
			contextResolutionsTotal.WithLabelValues(contextResult(status)).Inc()
		}
	})
}

func switchResult(status int) string {
	switch status {
	case http.StatusOK:
		return "ok"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func contextResult(status int) string {
	switch status {
	case http.StatusOK:
		return "ok"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}
