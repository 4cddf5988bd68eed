package repository

import (
	"context"
	"errors"
	"time"

	"seoaudit/internal/models"
)

var (
	// ErrNotFound is returned when no job has the requested id
	ErrNotFound = errors.New("job not found")
	// ErrJobExists is returned when a job id is reused
	ErrJobExists = errors.New("job already exists")
	// ErrInvalidTransition is returned when a status change breaks the job lifecycle
	ErrInvalidTransition = errors.New("invalid job status transition")
)

//go:generate mockgen -destination=../mocks/mock_repository.go -package=mocks . JobRepositoryInterface

// JobRepositoryInterface stores audit jobs and their reports
type JobRepositoryInterface interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	GetAllJobs(ctx context.Context) ([]*models.Job, error)
	UpdateJob(ctx context.Context, id string, status *models.JobStatus, report *models.AuditReport) error
}

// MetricsCollector is an interface for recording database metrics
type MetricsCollector interface {
	RecordDatabaseOperation(operation, table string, start time.Time, err error)
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordDatabaseOperation(string, string, time.Time, error) {}

// applyUpdate moves job to status and attaches report, stamping lifecycle times
func applyUpdate(job *models.Job, status *models.JobStatus, report *models.AuditReport, now time.Time) error {
	if status != nil && *status != job.Status {
		if !job.Status.CanTransition(*status) {
			return ErrInvalidTransition
		}
		job.Status = *status
		switch {
		case *status == models.JobStatusRunning:
			job.StartedAt = &now
		case status.Terminal():
			job.CompletedAt = &now
		}
	}
	if report != nil {
		job.Report = report
	}
	job.UpdatedAt = now
	return nil
}
