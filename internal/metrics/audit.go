package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetricsInterface is everything the audit service records
type AuditMetricsInterface interface {
	RecordJobSubmission(accepted bool)
	RecordJobCompletion(status string, duration time.Duration)
	SetQueueDepth(n int)
	SetBusyWorkers(n int)
	RecordFinding(category, check, status string, duration float64)
	RecordHTTPClientRequest(statusCode int, duration float64, method, requestType string)
	RecordDatabaseOperation(operation, table string, start time.Time, err error)
	RecordNATSPublish(messageType string, success bool)
	RecordNATSReceive(messageType string, duration time.Duration, success bool)
	RecordWebSocketConnection(success bool)
	SetActiveWebSocketConnections(count int)
	RecordWebSocketMessage(messageType string, success bool)
	RecordGroupSubscription(action string)
}

// AuditMetrics holds the audit service collectors
type AuditMetrics struct {
	*ServiceMetrics

	JobsSubmittedTotal *prometheus.CounterVec
	JobsCompletedTotal *prometheus.CounterVec
	JobDuration        prometheus.Histogram
	QueueDepth         prometheus.Gauge
	BusyWorkers        prometheus.Gauge

	FindingsTotal    *prometheus.CounterVec
	AnalyzerDuration *prometheus.HistogramVec

	HTTPClientRequestsTotal   *prometheus.CounterVec
	HTTPClientRequestDuration *prometheus.HistogramVec

	WebSocketConnectionsActive prometheus.Gauge
	WebSocketConnectionsTotal  *prometheus.CounterVec
	WebSocketMessagesSentTotal *prometheus.CounterVec
	GroupSubscriptionsTotal    *prometheus.CounterVec
}

// NewAuditMetrics creates the audit service collectors labelled with serviceName
func NewAuditMetrics(serviceName string) *AuditMetrics {
	constLabels := prometheus.Labels{LabelService: serviceName}

	return &AuditMetrics{
		ServiceMetrics: NewServiceMetrics(serviceName),

		JobsSubmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_jobs_submitted_total",
				Help:        "Total number of audit submissions by outcome",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus},
		),

		JobsCompletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_jobs_completed_total",
				Help:        "Total number of audit jobs reaching a terminal state",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus},
		),

		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "audit_job_duration_seconds",
				Help:        "Time from pickup to terminal state per audit job",
				Buckets:     []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
				ConstLabels: constLabels,
			},
		),

		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "audit_queue_depth",
				Help:        "Audit jobs waiting for a worker",
				ConstLabels: constLabels,
			},
		),

		BusyWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "audit_workers_busy",
				Help:        "Workers currently running an audit",
				ConstLabels: constLabels,
			},
		),

		FindingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_findings_total",
				Help:        "Findings produced per check and status",
				ConstLabels: constLabels,
			},
			[]string{LabelCategory, LabelCheck, LabelStatus},
		),

		AnalyzerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "audit_analyzer_duration_seconds",
				Help:        "Time spent in each analyzer",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelCheck},
		),

		HTTPClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_client_requests_total",
				Help:        "Total number of outbound HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus, LabelMethod, LabelRequestType},
		),

		HTTPClientRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_client_request_duration_seconds",
				Help:        "HTTP client request duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelRequestType},
		),

		WebSocketConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections_active",
				Help:        "Number of active WebSocket connections",
				ConstLabels: constLabels,
			},
		),

		WebSocketConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_connections_total",
				Help:        "Total number of WebSocket connection attempts",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus},
		),

		WebSocketMessagesSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_messages_sent_total",
				Help:        "Total number of WebSocket messages sent",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		GroupSubscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_group_subscriptions_total",
				Help:        "Total number of group subscribe and unsubscribe actions",
				ConstLabels: constLabels,
			},
			[]string{LabelAction},
		),
	}
}

// MustRegister registers every collector with reg, or the default registry when nil
func (m *AuditMetrics) MustRegister(reg *prometheus.Registry) {
	var r prometheus.Registerer = prometheus.DefaultRegisterer
	if reg != nil {
		r = reg
		m.gatherer = reg
	}

	r.MustRegister(m.ServiceMetrics.collectors()...)
	r.MustRegister(
		m.JobsSubmittedTotal,
		m.JobsCompletedTotal,
		m.JobDuration,
		m.QueueDepth,
		m.BusyWorkers,
		m.FindingsTotal,
		m.AnalyzerDuration,
		m.HTTPClientRequestsTotal,
		m.HTTPClientRequestDuration,
		m.WebSocketConnectionsActive,
		m.WebSocketConnectionsTotal,
		m.WebSocketMessagesSentTotal,
		m.GroupSubscriptionsTotal,
	)
}

func (m *AuditMetrics) RecordJobSubmission(accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	m.JobsSubmittedTotal.WithLabelValues(status).Inc()
}

func (m *AuditMetrics) RecordJobCompletion(status string, duration time.Duration) {
	m.JobsCompletedTotal.WithLabelValues(status).Inc()
	m.JobDuration.Observe(duration.Seconds())
}

func (m *AuditMetrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

func (m *AuditMetrics) SetBusyWorkers(n int) {
	m.BusyWorkers.Set(float64(n))
}

func (m *AuditMetrics) RecordFinding(category, check, status string, duration float64) {
	m.FindingsTotal.WithLabelValues(category, check, status).Inc()
	m.AnalyzerDuration.WithLabelValues(check).Observe(duration)
}

func (m *AuditMetrics) RecordHTTPClientRequest(statusCode int, duration float64, method, requestType string) {
	m.HTTPClientRequestsTotal.WithLabelValues(strconv.Itoa(statusCode), method, requestType).Inc()
	m.HTTPClientRequestDuration.WithLabelValues(method, requestType).Observe(duration)
}

func (m *AuditMetrics) RecordWebSocketConnection(success bool) {
	m.WebSocketConnectionsTotal.WithLabelValues(outcome(success)).Inc()
}

func (m *AuditMetrics) SetActiveWebSocketConnections(count int) {
	m.WebSocketConnectionsActive.Set(float64(count))
}

func (m *AuditMetrics) RecordWebSocketMessage(messageType string, success bool) {
	m.WebSocketMessagesSentTotal.WithLabelValues(messageType, outcome(success)).Inc()
}

func (m *AuditMetrics) RecordGroupSubscription(action string) {
	m.GroupSubscriptionsTotal.WithLabelValues(action).Inc()
}

// NoopAuditMetrics discards everything
type NoopAuditMetrics struct{}

// NewNoopAuditMetrics returns a metrics collector that records nothing
func NewNoopAuditMetrics() AuditMetricsInterface {
	return NoopAuditMetrics{}
}

func (NoopAuditMetrics) RecordJobSubmission(bool)                                {}
func (NoopAuditMetrics) RecordJobCompletion(string, time.Duration)               {}
func (NoopAuditMetrics) SetQueueDepth(int)                                       {}
func (NoopAuditMetrics) SetBusyWorkers(int)                                      {}
func (NoopAuditMetrics) RecordFinding(string, string, string, float64)           {}
func (NoopAuditMetrics) RecordHTTPClientRequest(int, float64, string, string)    {}
func (NoopAuditMetrics) RecordDatabaseOperation(string, string, time.Time, error) {}
func (NoopAuditMetrics) RecordNATSPublish(string, bool)                          {}
func (NoopAuditMetrics) RecordNATSReceive(string, time.Duration, bool)           {}
func (NoopAuditMetrics) RecordWebSocketConnection(bool)                          {}
func (NoopAuditMetrics) SetActiveWebSocketConnections(int)                       {}
func (NoopAuditMetrics) RecordWebSocketMessage(string, bool)                     {}
func (NoopAuditMetrics) RecordGroupSubscription(string)                          {}
