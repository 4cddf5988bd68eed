package jobs

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"seoaudit/internal/audit"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/models"
	"seoaudit/internal/repository"
	"seoaudit/internal/tracing"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

var (
	// ErrCapacityExceeded is returned when the job queue is full
	ErrCapacityExceeded = errors.New("audit queue is full, try again later")
	// ErrShuttingDown is returned for submissions after Shutdown
	ErrShuttingDown = errors.New("job manager is shutting down")
)

//go:generate mockgen -destination=../mocks/mock_jobs.go -package=mocks . AuditorInterface,SubmitterInterface

// AuditorInterface runs the audit pipeline for one request
type AuditorInterface interface {
	Audit(ctx context.Context, req models.AuditRequest) (*models.AuditReport, error)
}

// SubmitterInterface accepts audit requests for background processing
type SubmitterInterface interface {
	Submit(ctx context.Context, req models.AuditRequest) (*models.Job, error)
}

// MetricsCollector records job pool activity
type MetricsCollector interface {
	RecordJobSubmission(accepted bool)
	RecordJobCompletion(status string, duration time.Duration)
	SetQueueDepth(n int)
	SetBusyWorkers(n int)
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordJobSubmission(bool)                  {}
func (NoOpMetricsCollector) RecordJobCompletion(string, time.Duration) {}
func (NoOpMetricsCollector) SetQueueDepth(int)                         {}
func (NoOpMetricsCollector) SetBusyWorkers(int)                        {}

type task struct {
	job *models.Job
	req models.AuditRequest
}

// Manager runs audits on a fixed pool of workers fed by a bounded queue
type Manager struct {
	auditor AuditorInterface
	repo    repository.JobRepositoryInterface
	bus     messagebus.MessageBusInterface
	metrics MetricsCollector
	log     *slog.Logger
	now     func() time.Time

	workers   int
	queueSize int
	queue     chan task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
	busy    atomic.Int64
	// queued counts accepted jobs not yet picked up by a worker, never above queueSize
	queued atomic.Int64
}

// Option configures the Manager
type Option func(*Manager)

// WithWorkers sets the number of concurrent audits
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithQueueSize sets how many jobs may wait for a worker
func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithMessageBus publishes job transitions on bus
func WithMessageBus(bus messagebus.MessageBusInterface) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(mc MetricsCollector) Option {
	return func(m *Manager) {
		m.metrics = mc
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithClock overrides the job timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a job manager. Call Start to launch the workers.
func NewManager(auditor AuditorInterface, repo repository.JobRepositoryInterface, opts ...Option) *Manager {
	m := &Manager{
		auditor:   auditor,
		repo:      repo,
		metrics:   NoOpMetricsCollector{},
		log:       slog.Default(),
		now:       time.Now,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.queue = make(chan task, m.queueSize)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Start launches the worker pool
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	m.log.Info("Job workers started", slog.Int("workers", m.workers), slog.Int("queueSize", m.queueSize))
}

// Submit validates req, stores a pending job and queues it.
// ErrCapacityExceeded is returned, and nothing is stored, when the queue is full.
func (m *Manager) Submit(ctx context.Context, req models.AuditRequest) (*models.Job, error) {
	target, _, err := audit.NormalizeURL(req.URL)
	if err != nil {
		m.metrics.RecordJobSubmission(false)
		return nil, err
	}
	req.URL = target

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		m.metrics.RecordJobSubmission(false)
		return nil, ErrShuttingDown
	}

	if m.queued.Add(1) > int64(m.queueSize) {
		m.queued.Add(-1)
		m.metrics.RecordJobSubmission(false)
		m.log.Warn("Job queue full, rejecting audit", slog.String("url", target))
		return nil, ErrCapacityExceeded
	}

	now := m.now().UTC()
	job := &models.Job{
		ID:        generateID(),
		URL:       target,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.CreateJob(ctx, job); err != nil {
		m.queued.Add(-1)
		m.metrics.RecordJobSubmission(false)
		m.log.Error("Failed to create job", slog.String("url", target), slog.Any("error", err))
		return nil, errors.Join(err, errors.New("failed to create job"))
	}

	m.publish(ctx, job, nil, nil)

	// Never blocks: the reservation above keeps the queue below capacity
	queued := *job
	m.queue <- task{job: &queued, req: req}

	m.metrics.RecordJobSubmission(true)
	m.metrics.SetQueueDepth(len(m.queue))

	m.log.Info("Audit job queued", slog.String("jobId", job.ID), slog.String("url", target))
	return job, nil
}

// Shutdown stops accepting jobs and waits for queued and running jobs to finish.
// When ctx expires first, running audits are cancelled and ctx.Err is returned.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	started := m.started
	m.mu.Unlock()

	if !started {
		m.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		m.log.Info("Job workers drained")
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		m.log.Warn("Job workers cancelled before draining", slog.Any("error", ctx.Err()))
		return ctx.Err()
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for t := range m.queue {
		m.queued.Add(-1)
		m.setBusy(1)
		m.metrics.SetQueueDepth(len(m.queue))
		m.process(t, id)
		m.setBusy(-1)
	}
}

func (m *Manager) setBusy(delta int64) {
	m.metrics.SetBusyWorkers(int(m.busy.Add(delta)))
}

func (m *Manager) process(t task, worker int) {
	ctx, span := tracing.StartSpan(m.ctx, "job.process")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", t.job.ID), attribute.Int("job.worker", worker))

	start := time.Now()
	log := m.log.With(slog.String("jobId", t.job.ID), slog.Int("worker", worker))

	if err := m.transition(ctx, t.job, models.JobStatusRunning, nil, nil); err != nil {
		log.Error("Failed to mark job running", slog.Any("error", err))
		m.metrics.RecordJobCompletion(string(models.JobStatusFailed), time.Since(start))
		return
	}

	status := models.JobStatusCompleted
	report, err := m.run(ctx, t.req)
	if err != nil {
		status = models.JobStatusFailed
		tracing.SetError(ctx, err)
		log.Error("Audit failed", slog.Any("error", err))
	} else {
		report.AuditID = t.job.ID
	}

	if err := m.transition(ctx, t.job, status, report, err); err != nil {
		log.Error("Failed to store audit result", slog.Any("error", err))
		if status == models.JobStatusCompleted {
			status = models.JobStatusFailed
			m.transition(ctx, t.job, status, nil, err)
		}
	}

	m.metrics.RecordJobCompletion(string(status), time.Since(start))
	log.Info("Audit job finished", slog.String("status", string(status)), slog.Duration("elapsed", time.Since(start)))
}

// run calls the auditor, converting a panic into an error so the worker survives
func (m *Manager) run(ctx context.Context, req models.AuditRequest) (report *models.AuditReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Audit panicked", slog.Any("panic", r))
			report, err = nil, errors.New("audit pipeline panicked")
		}
	}()

	report, err = m.auditor.Audit(ctx, req)
	if err == nil && report == nil {
		err = errors.New("audit produced no report")
	}
	return report, err
}

// transition stores the new status and announces it
func (m *Manager) transition(ctx context.Context, job *models.Job, status models.JobStatus, report *models.AuditReport, cause error) error {
	if err := m.repo.UpdateJob(ctx, job.ID, &status, report); err != nil {
		return err
	}
	job.Status = status
	m.publish(ctx, job, report, cause)
	return nil
}

func (m *Manager) publish(ctx context.Context, job *models.Job, report *models.AuditReport, cause error) {
	if m.bus == nil {
		return
	}

	msg := messagebus.JobUpdateMessage{
		AuditID:   job.ID,
		URL:       job.URL,
		Status:    job.Status,
		Timestamp: m.now().UTC(),
	}
	if report != nil {
		scores := report.Scores
		msg.Scores = &scores
		msg.Error = report.Error
	}
	if cause != nil {
		msg.Error = cause.Error()
	}

	if err := m.bus.PublishJobUpdate(ctx, msg); err != nil {
		m.log.Warn("Failed to publish job update", slog.String("jobId", job.ID), slog.Any("error", err))
	}
}

// entropyPool is a pool of ulid.MonotonicEntropy
var entropyPool = sync.Pool{
	New: func() any {
		return ulid.Monotonic(rand.Reader, 0)
	},
}

// generateID generates a new ULID
func generateID() string {
	e := entropyPool.Get().(*ulid.MonotonicEntropy)
	defer entropyPool.Put(e)
	ts := ulid.Timestamp(time.Now())
	return ulid.MustNew(ts, e).String()
}
