package api

import (
	"errors"
	"net/http"

	"seoaudit/internal/audit"
	"seoaudit/internal/jobs"
	"seoaudit/internal/repository"
)

var (
	// ErrAuditNotReady is returned for results of unknown or unfinished audits
	ErrAuditNotReady = errors.New("Audit not found or still running")
	// ErrAuditNotFound is returned for downloads of unknown or unfinished audits
	ErrAuditNotFound = errors.New("Audit not found")
	// ErrUnsupportedFormat is returned for unknown download formats
	ErrUnsupportedFormat = errors.New("unsupported format: use json, csv or xlsx")
)

// badRequestError marks errors caused by the caller's input
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

// statusFor maps handler errors to HTTP status codes
func statusFor(err error) int {
	var br *badRequestError
	switch {
	case errors.As(err, &br), audit.IsKind(err, audit.KindConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuditNotReady), errors.Is(err, ErrAuditNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrCapacityExceeded), errors.Is(err, jobs.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
