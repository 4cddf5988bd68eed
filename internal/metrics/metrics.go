package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yousuf64/shift"

	"seoaudit/internal/middleware"
)

const (
	LabelService     = "service"
	LabelMethod      = "method"
	LabelEndpoint    = "endpoint"
	LabelStatus      = "status"
	LabelOperation   = "operation"
	LabelTable       = "table"
	LabelMessageType = "message_type"
	LabelRequestType = "request_type"
	LabelCategory    = "category"
	LabelCheck       = "check"
	LabelAction      = "action"
)

// ServiceMetrics holds the collectors every service exposes
type ServiceMetrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// System
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec

	// Message bus
	NATSMessagesPublished *prometheus.CounterVec
	NATSMessagesReceived  *prometheus.CounterVec
	NATSMessageDuration   *prometheus.HistogramVec

	// Store
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec

	gatherer     prometheus.Gatherer
	uptimeTicker *time.Ticker
}

// NewServiceMetrics creates the shared collectors labelled with serviceName
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	constLabels := prometheus.Labels{LabelService: serviceName}

	return &ServiceMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint, LabelStatus},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint},
		),

		HTTPRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Current number of HTTP requests being served",
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "service_uptime_seconds",
				Help:        "Service uptime in seconds",
				ConstLabels: constLabels,
			},
		),

		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "service_info",
				Help:        "Service information",
				ConstLabels: constLabels,
			},
			[]string{"version", "go_version"},
		),

		NATSMessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "nats_messages_published_total",
				Help:        "Total number of NATS messages published",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		NATSMessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "nats_messages_received_total",
				Help:        "Total number of NATS messages received",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		NATSMessageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "nats_message_processing_duration_seconds",
				Help:        "NATS message processing duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType},
		),

		DatabaseOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "database_operations_total",
				Help:        "Total number of job store operations",
				ConstLabels: constLabels,
			},
			[]string{LabelOperation, LabelTable, LabelStatus},
		),

		DatabaseOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "database_operation_duration_seconds",
				Help:        "Job store operation duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelOperation, LabelTable},
		),

		gatherer: prometheus.DefaultGatherer,
	}
}

func (m *ServiceMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ServiceUptime,
		m.ServiceInfo,
		m.NATSMessagesPublished,
		m.NATSMessagesReceived,
		m.NATSMessageDuration,
		m.DatabaseOperationsTotal,
		m.DatabaseOperationDuration,
	}
}

// HTTPMiddleware records request counts, latency and in-flight requests per route
func (m *ServiceMetrics) HTTPMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		start := time.Now()
		endpoint := route.Path

		m.HTTPRequestsInFlight.WithLabelValues(r.Method, endpoint).Inc()
		defer m.HTTPRequestsInFlight.WithLabelValues(r.Method, endpoint).Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		err := next(wrapped, r, route)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())

		return err
	}
}

func (m *ServiceMetrics) RecordNATSPublish(messageType string, success bool) {
	m.NATSMessagesPublished.WithLabelValues(messageType, outcome(success)).Inc()
}

func (m *ServiceMetrics) RecordNATSReceive(messageType string, duration time.Duration, success bool) {
	m.NATSMessagesReceived.WithLabelValues(messageType, outcome(success)).Inc()
	m.NATSMessageDuration.WithLabelValues(messageType).Observe(duration.Seconds())
}

func (m *ServiceMetrics) RecordDatabaseOperation(operation, table string, start time.Time, err error) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, outcome(err == nil)).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

func (m *ServiceMetrics) SetServiceInfo(version string) {
	m.ServiceInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

func (m *ServiceMetrics) startUptimeTracking() {
	startTime := time.Now()

	m.ServiceUptime.Set(0)
	m.uptimeTicker = time.NewTicker(30 * time.Second)

	go func(t *time.Ticker) {
		for range t.C {
			m.ServiceUptime.Set(time.Since(startTime).Seconds())
		}
	}(m.uptimeTicker)
}

func (m *ServiceMetrics) stopUptimeTracking() {
	if m.uptimeTicker != nil {
		m.uptimeTicker.Stop()
		m.uptimeTicker = nil
	}
}

// Handler serves /metrics and /health
func (m *ServiceMetrics) Handler() http.Handler {
	router := shift.New()
	router.Use(middleware.CORSMiddleware)

	metricsHandler := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		metricsHandler.ServeHTTP(w, r)
		return nil
	})

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		return err
	})

	router.OPTIONS("/*wildcard", middleware.OptionsHandler)

	return router.Serve()
}

// StartMetricsServer serves the metrics endpoints on port in the background
func (m *ServiceMetrics) StartMetricsServer(port string, onError func(error)) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.RegisterOnShutdown(m.stopUptimeTracking)

	m.startUptimeTracking()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed && onError != nil {
			onError(err)
		}
	}()

	return server
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// responseWriter wraps [http.ResponseWriter] to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
