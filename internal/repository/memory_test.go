package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seoaudit/internal/models"
)

func newJob(id, url string) *models.Job {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Job{ID: id, URL: url, Status: models.JobStatusPending, CreatedAt: now, UpdatedAt: now}
}

func statusPtr(s models.JobStatus) *models.JobStatus {
	return &s
}

func TestMemoryJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository(nil)

	require.NoError(t, repo.CreateJob(ctx, newJob("01A", "https://example.com")))
	assert.ErrorIs(t, repo.CreateJob(ctx, newJob("01A", "https://example.com")), ErrJobExists)

	_, err := repo.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateJob(ctx, "missing", statusPtr(models.JobStatusRunning), nil), ErrNotFound)

	require.NoError(t, repo.UpdateJob(ctx, "01A", statusPtr(models.JobStatusRunning), nil))
	job, err := repo.GetJob(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)

	report := models.NewAuditReport("https://example.com", "example.com", time.Now())
	require.NoError(t, repo.UpdateJob(ctx, "01A", statusPtr(models.JobStatusCompleted), report))
	job, err = repo.GetJob(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Same(t, report, job.Report)

	err = repo.UpdateJob(ctx, "01A", statusPtr(models.JobStatusRunning), nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMemoryJobRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository(nil)
	require.NoError(t, repo.CreateJob(ctx, newJob("01A", "https://example.com")))

	job, err := repo.GetJob(ctx, "01A")
	require.NoError(t, err)
	job.Status = models.JobStatusFailed
	job.URL = "mutated"

	stored, err := repo.GetJob(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, stored.Status)
	assert.Equal(t, "https://example.com", stored.URL)
}

func TestMemoryJobRepository_GetAllJobs_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository(nil)
	for _, id := range []string{"01B", "01A", "01C"} {
		require.NoError(t, repo.CreateJob(ctx, newJob(id, "https://"+id)))
	}

	jobs, err := repo.GetAllJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "01C", jobs[0].ID)
	assert.Equal(t, "01A", jobs[2].ID)
}

func TestMemoryJobRepository_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobRepository(nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%02d", i)
			url := fmt.Sprintf("https://site%d.example", i)
			if !assert.NoError(t, repo.CreateJob(ctx, newJob(id, url))) {
				return
			}
			assert.NoError(t, repo.UpdateJob(ctx, id, statusPtr(models.JobStatusRunning), nil))
			report := models.NewAuditReport(url, "", time.Now())
			assert.NoError(t, repo.UpdateJob(ctx, id, statusPtr(models.JobStatusCompleted), report))
		}(i)
	}

	// readers run alongside the writers
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs, err := repo.GetAllJobs(ctx)
			assert.NoError(t, err)
			for _, j := range jobs {
				if j.Report != nil {
					assert.Equal(t, j.URL, j.Report.URL)
				}
			}
		}()
	}
	wg.Wait()

	jobs, err := repo.GetAllJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, n)
	for _, j := range jobs {
		assert.Equal(t, models.JobStatusCompleted, j.Status)
		require.NotNil(t, j.Report)
		assert.Equal(t, j.URL, j.Report.URL)
	}
}
