package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"seoaudit/internal/models"
)

const memoryTable = "memory"

// MemoryJobRepository keeps jobs in process. Readers always receive copies.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
	mc   MetricsCollector
	now  func() time.Time
}

// NewMemoryJobRepository creates an empty in-process job store
func NewMemoryJobRepository(mc MetricsCollector) *MemoryJobRepository {
	if mc == nil {
		mc = NoOpMetricsCollector{}
	}
	return &MemoryJobRepository{
		jobs: make(map[string]*models.Job),
		mc:   mc,
		now:  time.Now,
	}
}

func (m *MemoryJobRepository) CreateJob(_ context.Context, job *models.Job) (err error) {
	start := time.Now()
	defer func() { m.mc.RecordDatabaseOperation("create_job", memoryTable, start, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; ok {
		return ErrJobExists
	}
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *MemoryJobRepository) GetJob(_ context.Context, id string) (job *models.Job, err error) {
	start := time.Now()
	defer func() { m.mc.RecordDatabaseOperation("get_job", memoryTable, start, err) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(stored), nil
}

// GetAllJobs returns every job, newest first
func (m *MemoryJobRepository) GetAllJobs(_ context.Context) (jobs []*models.Job, err error) {
	start := time.Now()
	defer func() { m.mc.RecordDatabaseOperation("get_all_jobs", memoryTable, start, err) }()

	m.mu.RLock()
	jobs = make([]*models.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, cloneJob(j))
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].ID > jobs[k].ID
	})
	return jobs, nil
}

func (m *MemoryJobRepository) UpdateJob(_ context.Context, id string, status *models.JobStatus, report *models.AuditReport) (err error) {
	start := time.Now()
	defer func() { m.mc.RecordDatabaseOperation("update_job", memoryTable, start, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}

	updated := cloneJob(stored)
	if err := applyUpdate(updated, status, report, m.now()); err != nil {
		return err
	}
	m.jobs[id] = updated
	return nil
}

// cloneJob copies the job header. Reports are never mutated once stored, so they are shared.
func cloneJob(j *models.Job) *models.Job {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
