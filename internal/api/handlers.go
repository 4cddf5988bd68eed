package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yousuf64/shift"

	"seoaudit/internal/audit"
	"seoaudit/internal/middleware"
	"seoaudit/internal/models"
	"seoaudit/internal/repository"
)

// JobSummary is one entry of the audit listing
type JobSummary struct {
	AuditID      string           `json:"audit_id"`
	URL          string           `json:"url"`
	Status       models.JobStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	OverallScore *float64         `json:"overall_score,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// handleAudit accepts an audit request and queues it
func (a *API) handleAudit(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	ctx := r.Context()

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest(errors.Join(err, errors.New("failed to decode request")))
	}

	if strings.TrimSpace(req.URL) == "" {
		return badRequest(errors.New("URL is required"))
	}

	validatedURL, err := validateURL(req.URL, a.allowPrivate)
	if err != nil {
		return badRequest(fmt.Errorf("url validation failed: %w", err))
	}

	job, err := a.jobs.Submit(ctx, models.AuditRequest{
		URL:    validatedURL,
		APIKey: strings.TrimSpace(req.APIKey),
	})
	if err != nil {
		return err
	}

	a.log.Info("Audit accepted",
		slog.String("auditId", job.ID),
		slog.String("url", job.URL),
		slog.String("requestId", middleware.RequestID(ctx)))

	return middleware.WriteJSON(w, http.StatusAccepted, AuditResponse{
		AuditID: job.ID,
		Status:  string(models.JobStatusRunning),
		Message: "Audit started successfully",
	})
}

// handleStatus reports whether an audit has finished. Unknown ids report running.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	id := route.Params.Get("audit_id")

	status := models.JobStatusRunning
	job, err := a.jobRepo.GetJob(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return errors.Join(err, errors.New("failed to get job"))
	case job.Status.Terminal():
		status = job.Status
	}

	return middleware.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:  string(status),
		AuditID: id,
	})
}

// handleResults returns the full report of a completed audit
func (a *API) handleResults(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	report, err := a.completedReport(r.Context(), route.Params.Get("audit_id"), ErrAuditNotReady)
	if err != nil {
		return err
	}
	return middleware.WriteJSON(w, http.StatusOK, report)
}

// handleReport returns the plain text summary of a completed audit
func (a *API) handleReport(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	report, err := a.completedReport(r.Context(), route.Params.Get("audit_id"), ErrAuditNotReady)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = io.WriteString(w, audit.RenderText(report))
	return err
}

// handleDownload serves a completed report as a json, csv or xlsx attachment
func (a *API) handleDownload(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	id := route.Params.Get("audit_id")
	format := strings.ToLower(route.Params.Get("format"))

	var (
		contentType string
		write       func(io.Writer, *models.AuditReport) error
	)
	switch format {
	case "json":
		contentType, write = "application/json", writeJSONReport
	case "csv":
		contentType, write = "text/csv", writeCSV
	case "xlsx":
		contentType, write = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", writeXLSX
	default:
		return badRequest(ErrUnsupportedFormat)
	}

	report, err := a.completedReport(r.Context(), id, ErrAuditNotFound)
	if err != nil {
		return err
	}

	// render before writing headers so a failure still yields a clean error response
	var buf bytes.Buffer
	if err := write(&buf, report); err != nil {
		return errors.Join(err, fmt.Errorf("failed to render %s export", format))
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(report, id, format)))
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	return err
}

// handleListAudits lists every known audit, newest first
func (a *API) handleListAudits(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	jobs, err := a.jobRepo.GetAllJobs(r.Context())
	if err != nil {
		return errors.Join(err, errors.New("failed to get jobs"))
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		s := JobSummary{
			AuditID:     job.ID,
			URL:         job.URL,
			Status:      job.Status,
			CreatedAt:   job.CreatedAt,
			CompletedAt: job.CompletedAt,
		}
		if job.Report != nil {
			s.OverallScore = models.Float(job.Report.Scores.Overall)
			s.Error = job.Report.Error
		}
		summaries = append(summaries, s)
	}

	return middleware.WriteJSON(w, http.StatusOK, summaries)
}

// handleHealth reports service liveness
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	return middleware.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: a.now().UTC(),
		Version:   Version,
	})
}

// completedReport loads the report of a completed audit, answering notFound otherwise
func (a *API) completedReport(ctx context.Context, id string, notFound error) (*models.AuditReport, error) {
	job, err := a.jobRepo.GetJob(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, errors.Join(err, errors.New("failed to get job"))
	}
	if job.Status != models.JobStatusCompleted || job.Report == nil {
		return nil, notFound
	}
	return job.Report, nil
}
