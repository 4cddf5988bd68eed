package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yousuf64/shift"
	"go.uber.org/mock/gomock"

	"seoaudit/internal/jobs"
	"seoaudit/internal/middleware"
	"seoaudit/internal/mocks"
	"seoaudit/internal/models"
	"seoaudit/internal/repository"
)

// handlerTestCase is a test case for API handler testing
type handlerTestCase struct {
	name           string
	method         string
	path           string
	body           any
	setupMocks     func(*mocks.MockSubmitterInterface, *mocks.MockJobRepositoryInterface)
	expectedStatus int
	expectedError  bool
	description    string
}

// setupMockAPI creates an API instance with mocked dependencies
func setupMockAPI(t *testing.T) (*API, *mocks.MockSubmitterInterface, *mocks.MockJobRepositoryInterface, *gomock.Controller) {
	ctrl := gomock.NewController(t)

	mockSubmitter := mocks.NewMockSubmitterInterface(ctrl)
	mockJobRepo := mocks.NewMockJobRepositoryInterface(ctrl)

	api := &API{
		jobs:    mockSubmitter,
		jobRepo: mockJobRepo,
		now:     time.Now,
		log:     slog.New(slog.DiscardHandler),
	}

	return api, mockSubmitter, mockJobRepo, ctrl
}

// makeRequest creates an HTTP request with the given method, path, and body.
func makeRequest(method, path string, body any) (*http.Request, error) {
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, path, &reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// setupRouter creates a new router and registers the given handler for the given method and path.
// It also adds the error middleware to the router.
func setupRouter(method, path string, handler shift.HandlerFunc) *shift.Router {
	router := shift.New()
	router.Use(middleware.ErrorMiddleware(slog.New(slog.DiscardHandler), statusFor))
	router.Map([]string{method}, path, handler)
	return router
}

func acceptedJob(url string) *models.Job {
	return &models.Job{
		ID:        "01JAUDIT0000000000000000AA",
		URL:       url,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func completedJob(id string) *models.Job {
	report := models.NewAuditReport("https://example.com", "example.com", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	report.AuditID = id
	report.AddFinding(models.Finding{
		Category:       models.CategoryOnPageSEO,
		Check:          models.CheckTitleTags,
		Status:         models.StatusGood,
		Value:          models.Float(45),
		Recommendation: "Title length is 45 characters. Optimal range is 30-60 characters.",
	})
	report.AddFinding(models.Finding{
		Category: models.CategoryTechnicalSEO,
		Check:    models.CheckCanonicalTags,
		Status:   models.StatusPoor,
	})
	report.Scores = models.Scores{TechnicalSEO: 0, OnPageSEO: 100, Overall: 100}

	done := time.Now()
	return &models.Job{
		ID:          id,
		URL:         "https://example.com",
		Status:      models.JobStatusCompleted,
		CreatedAt:   done.Add(-time.Minute),
		UpdatedAt:   done,
		CompletedAt: &done,
		Report:      report,
	}
}

func submitOK() func(*mocks.MockSubmitterInterface, *mocks.MockJobRepositoryInterface) {
	return func(s *mocks.MockSubmitterInterface, _ *mocks.MockJobRepositoryInterface) {
		s.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.AuditRequest) (*models.Job, error) {
				return acceptedJob(req.URL), nil
			})
	}
}

func noMocks(*mocks.MockSubmitterInterface, *mocks.MockJobRepositoryInterface) {}

func TestAPI_HandleAudit_TableDriven(t *testing.T) {
	testCases := []handlerTestCase{
		// Success cases
		{
			name:           "SuccessfulAudit_HTTPS",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://example.com"},
			setupMocks:     submitOK(),
			expectedStatus: http.StatusAccepted,
			description:    "Valid HTTPS URL should be accepted",
		},
		{
			name:           "SuccessfulAudit_HTTP",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://example.com"},
			setupMocks:     submitOK(),
			expectedStatus: http.StatusAccepted,
			description:    "Valid HTTP URL should be accepted",
		},
		{
			name:           "SuccessfulAudit_NoScheme",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "example.com/page"},
			setupMocks:     submitOK(),
			expectedStatus: http.StatusAccepted,
			description:    "URL without scheme gets https prefixed",
		},
		{
			name:   "SuccessfulAudit_WithAPIKey",
			method: "POST",
			path:   "/audit",
			body:   AuditRequest{URL: "https://example.com", APIKey: "  key-123 "},
			setupMocks: func(s *mocks.MockSubmitterInterface, _ *mocks.MockJobRepositoryInterface) {
				s.EXPECT().Submit(gomock.Any(), models.AuditRequest{URL: "https://example.com", APIKey: "key-123"}).
					Return(acceptedJob("https://example.com"), nil)
			},
			expectedStatus: http.StatusAccepted,
			description:    "API key is trimmed and forwarded",
		},
		{
			name:           "SubdomainAndPort",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://api.example.com:8443/v1"},
			setupMocks:     submitOK(),
			expectedStatus: http.StatusAccepted,
			description:    "Subdomains and explicit ports are allowed",
		},

		// Validation failures
		{
			name:           "EmptyURL",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: ""},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Empty URL should be rejected",
		},
		{
			name:           "WhitespaceURL",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "   "},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Whitespace-only URL should be rejected",
		},
		{
			name:           "URLTooLong",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://example.com/" + strings.Repeat("a", 2050)},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "URLs over 2048 characters should be rejected",
		},
		{
			name:           "FTPScheme",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "ftp://example.com"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Non http(s) schemes should be rejected",
		},
		{
			name:           "FileScheme",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "file:///etc/passwd"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "File scheme should be rejected",
		},
		{
			name:           "MissingHost",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "URL without host should be rejected",
		},
		{
			name:           "Localhost",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://localhost:8080"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Localhost should be rejected",
		},
		{
			name:           "LoopbackIP",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://127.0.0.1"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Loopback IPv4 should be rejected",
		},
		{
			name:           "LoopbackIP_IPv6",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://[::1]:8080"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Loopback IPv6 should be rejected",
		},
		{
			name:           "PrivateIP_192168",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://192.168.1.1"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Private 192.168.x.x should be rejected",
		},
		{
			name:           "PrivateIP_10x",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://10.0.0.1"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Private 10.x.x.x should be rejected",
		},
		{
			name:           "PrivateIP_172x",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "http://172.16.0.1"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Private 172.16.x.x should be rejected",
		},
		{
			name:           "PathTraversalAttack",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://example.com/../etc/passwd"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Path traversal should be rejected",
		},
		{
			name:           "InvalidHostnameFormat",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://invalid..hostname"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Malformed hostnames should be rejected",
		},
		{
			name:           "LocalhostSubdomain",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://test.localhost"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Subdomains of localhost should be rejected",
		},
		{
			name:           "EmptyHostname_WithPort",
			method:         "POST",
			path:           "/audit",
			body:           AuditRequest{URL: "https://:8080"},
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Port without hostname should be rejected",
		},
		{
			name:           "InvalidJSON",
			method:         "POST",
			path:           "/audit",
			body:           "invalid json",
			setupMocks:     noMocks,
			expectedStatus: http.StatusBadRequest,
			description:    "Malformed request bodies should be rejected",
		},

		// Job manager failures
		{
			name:   "CapacityExceeded",
			method: "POST",
			path:   "/audit",
			body:   AuditRequest{URL: "https://example.com"},
			setupMocks: func(s *mocks.MockSubmitterInterface, _ *mocks.MockJobRepositoryInterface) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, jobs.ErrCapacityExceeded)
			},
			expectedStatus: http.StatusServiceUnavailable,
			description:    "A saturated worker pool answers 503",
		},
		{
			name:   "ShuttingDown",
			method: "POST",
			path:   "/audit",
			body:   AuditRequest{URL: "https://example.com"},
			setupMocks: func(s *mocks.MockSubmitterInterface, _ *mocks.MockJobRepositoryInterface) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, jobs.ErrShuttingDown)
			},
			expectedStatus: http.StatusServiceUnavailable,
			description:    "Submissions during shutdown answer 503",
		},
		{
			name:   "DatabaseError",
			method: "POST",
			path:   "/audit",
			body:   AuditRequest{URL: "https://example.com"},
			setupMocks: func(s *mocks.MockSubmitterInterface, _ *mocks.MockJobRepositoryInterface) {
				s.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, errors.New("database error"))
			},
			expectedError: true,
			description:   "Handle job store errors",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, mockSubmitter, mockJobRepo, ctrl := setupMockAPI(t)
			defer ctrl.Finish()

			tc.setupMocks(mockSubmitter, mockJobRepo)

			req, err := makeRequest(tc.method, tc.path, tc.body)
			assert.NoError(t, err, "Failed to create request")

			rr := httptest.NewRecorder()
			router := setupRouter("POST", "/audit", api.handleAudit)
			router.Serve().ServeHTTP(rr, req)

			if tc.expectedError {
				assert.True(t, rr.Code >= 500, "Expected server error status code, got %d", rr.Code)
				return
			}
			assert.Equal(t, tc.expectedStatus, rr.Code, tc.description)

			if tc.expectedStatus == http.StatusAccepted {
				var resp AuditResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.AuditID)
				assert.Equal(t, "running", resp.Status)
				assert.Equal(t, "Audit started successfully", resp.Message)
			}
		})
	}
}

func TestAPI_HandleAudit_EmptyURLMessage(t *testing.T) {
	api, _, _, ctrl := setupMockAPI(t)
	defer ctrl.Finish()

	req, err := makeRequest("POST", "/audit", AuditRequest{})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	setupRouter("POST", "/audit", api.handleAudit).Serve().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"URL is required"}`, rr.Body.String())
}

func TestAPI_HandleAudit_AllowPrivateTargets(t *testing.T) {
	api, mockSubmitter, _, ctrl := setupMockAPI(t)
	defer ctrl.Finish()
	api.allowPrivate = true

	mockSubmitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(acceptedJob("http://127.0.0.1:8080"), nil)

	req, err := makeRequest("POST", "/audit", AuditRequest{URL: "http://127.0.0.1:8080"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	setupRouter("POST", "/audit", api.handleAudit).Serve().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestAPI_HandleStatus_TableDriven(t *testing.T) {
	running := &models.Job{ID: "r", Status: models.JobStatusRunning}
	pending := &models.Job{ID: "p", Status: models.JobStatusPending}
	failed := &models.Job{ID: "f", Status: models.JobStatusFailed}

	testCases := []struct {
		name           string
		id             string
		setupMocks     func(*mocks.MockJobRepositoryInterface)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Completed",
			id:   "c",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "c").Return(completedJob("c"), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"completed","audit_id":"c"}`,
		},
		{
			name: "Running",
			id:   "r",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "r").Return(running, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"running","audit_id":"r"}`,
		},
		{
			name: "PendingReportsRunning",
			id:   "p",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "p").Return(pending, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"running","audit_id":"p"}`,
		},
		{
			name: "UnknownReportsRunning",
			id:   "nope",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "nope").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"running","audit_id":"nope"}`,
		},
		{
			name: "Failed",
			id:   "f",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "f").Return(failed, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"failed","audit_id":"f"}`,
		},
		{
			name: "DatabaseError",
			id:   "x",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "x").Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, mockJobRepo, ctrl := setupMockAPI(t)
			defer ctrl.Finish()
			tc.setupMocks(mockJobRepo)

			req, err := makeRequest("GET", "/audit/"+tc.id+"/status", nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			setupRouter("GET", "/audit/:audit_id/status", api.handleStatus).Serve().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestAPI_HandleResults_TableDriven(t *testing.T) {
	testCases := []struct {
		name           string
		setupMocks     func(*mocks.MockJobRepositoryInterface)
		expectedStatus int
	}{
		{
			name: "Completed",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(completedJob("a1"), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "StillRunning",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(&models.Job{ID: "a1", Status: models.JobStatusRunning}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Failed",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(&models.Job{ID: "a1", Status: models.JobStatusFailed}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Unknown",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, mockJobRepo, ctrl := setupMockAPI(t)
			defer ctrl.Finish()
			tc.setupMocks(mockJobRepo)

			req, err := makeRequest("GET", "/audit/a1/results", nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			setupRouter("GET", "/audit/:audit_id/results", api.handleResults).Serve().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedStatus == http.StatusNotFound {
				assert.JSONEq(t, `{"error":"Audit not found or still running"}`, rr.Body.String())
				return
			}

			var report models.AuditReport
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
			assert.Equal(t, "a1", report.AuditID)
			assert.Equal(t, "example.com", report.Domain)
			f, ok := report.Finding(models.CategoryOnPageSEO, models.CheckTitleTags)
			require.True(t, ok)
			assert.Equal(t, models.StatusGood, f.Status)
			assert.Equal(t, 100.0, report.Scores.Overall)
		})
	}
}

func TestAPI_HandleReport(t *testing.T) {
	api, _, mockJobRepo, ctrl := setupMockAPI(t)
	defer ctrl.Finish()
	mockJobRepo.EXPECT().GetJob(gomock.Any(), "a1").Return(completedJob("a1"), nil)

	req, err := makeRequest("GET", "/audit/a1/report", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	setupRouter("GET", "/audit/:audit_id/report", api.handleReport).Serve().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "SEO AUDIT REPORT")
	assert.Contains(t, body, "Website: https://example.com")
	assert.Contains(t, body, "Title Tags: good | Value: 45")
}

func TestAPI_HandleDownload_TableDriven(t *testing.T) {
	testCases := []struct {
		name           string
		format         string
		setupMocks     func(*mocks.MockJobRepositoryInterface)
		expectedStatus int
		contentType    string
		check          func(t *testing.T, body []byte)
	}{
		{
			name:   "JSON",
			format: "json",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(completedJob("a1"), nil)
			},
			expectedStatus: http.StatusOK,
			contentType:    "application/json",
			check: func(t *testing.T, body []byte) {
				var report models.AuditReport
				require.NoError(t, json.Unmarshal(body, &report))
				assert.Equal(t, "a1", report.AuditID)
			},
		},
		{
			name:   "CSV",
			format: "csv",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(completedJob("a1"), nil)
			},
			expectedStatus: http.StatusOK,
			contentType:    "text/csv",
			check: func(t *testing.T, body []byte) {
				rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
				require.NoError(t, err)
				require.Len(t, rows, 3)
				assert.Equal(t, []string{"Category", "Item", "Status", "Value", "Recommendation"}, rows[0])
				assert.Equal(t, []string{"Technical Seo", "Canonical Tags", "poor", "N/A", "N/A"}, rows[1])
				assert.Equal(t, []string{"On Page Seo", "Title Tags", "good", "45",
					"Title length is 45 characters. Optimal range is 30-60 characters."}, rows[2])
			},
		},
		{
			name:   "XLSX",
			format: "xlsx",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(completedJob("a1"), nil)
			},
			expectedStatus: http.StatusOK,
			contentType:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			check: func(t *testing.T, body []byte) {
				f, err := excelize.OpenReader(bytes.NewReader(body))
				require.NoError(t, err)
				defer f.Close()
				rows, err := f.GetRows(exportSheet)
				require.NoError(t, err)
				require.Len(t, rows, 3)
				assert.Equal(t, exportHeader, rows[0])
				assert.Equal(t, "Title Tags", rows[2][1])
			},
		},
		{
			name:           "UnsupportedFormat",
			format:         "pdf",
			setupMocks:     func(*mocks.MockJobRepositoryInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "NotFound",
			format: "csv",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"error":"Audit not found"}`, string(body))
			},
		},
		{
			name:   "StillRunning",
			format: "json",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetJob(gomock.Any(), "a1").Return(&models.Job{ID: "a1", Status: models.JobStatusRunning}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, mockJobRepo, ctrl := setupMockAPI(t)
			defer ctrl.Finish()
			tc.setupMocks(mockJobRepo)

			req, err := makeRequest("GET", "/audit/a1/download/"+tc.format, nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			setupRouter("GET", "/audit/:audit_id/download/:format", api.handleDownload).Serve().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.contentType != "" {
				assert.Equal(t, tc.contentType, rr.Header().Get("Content-Type"))
				assert.Equal(t, `attachment; filename="seo_audit_example.com_a1.`+tc.format+`"`,
					rr.Header().Get("Content-Disposition"))
			}
			if tc.check != nil {
				tc.check(t, rr.Body.Bytes())
			}
		})
	}
}

func TestAPI_HandleListAudits_TableDriven(t *testing.T) {
	testCases := []struct {
		name           string
		setupMocks     func(*mocks.MockJobRepositoryInterface)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "SuccessfulList",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetAllJobs(gomock.Any()).Return([]*models.Job{
					completedJob("b"),
					{ID: "a", URL: "https://test.com", Status: models.JobStatusRunning, CreatedAt: time.Now()},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "EmptyList",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetAllJobs(gomock.Any()).Return([]*models.Job{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name: "DatabaseError",
			setupMocks: func(repo *mocks.MockJobRepositoryInterface) {
				repo.EXPECT().GetAllJobs(gomock.Any()).Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, mockJobRepo, ctrl := setupMockAPI(t)
			defer ctrl.Finish()
			tc.setupMocks(mockJobRepo)

			req, err := makeRequest("GET", "/audits", nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			setupRouter("GET", "/audits", api.handleListAudits).Serve().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedStatus != http.StatusOK {
				return
			}

			var summaries []JobSummary
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&summaries))
			require.Len(t, summaries, tc.expectedCount)
			if tc.expectedCount > 0 {
				assert.Equal(t, "b", summaries[0].AuditID)
				require.NotNil(t, summaries[0].OverallScore)
				assert.Equal(t, 100.0, *summaries[0].OverallScore)
				assert.Nil(t, summaries[1].OverallScore)
			}
		})
	}
}

func TestAPI_HandleHealth(t *testing.T) {
	api, _, _, ctrl := setupMockAPI(t)
	defer ctrl.Finish()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	api.now = func() time.Time { return fixed }

	req, err := makeRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	setupRouter("GET", "/health", api.handleHealth).Serve().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","timestamp":"2024-05-01T12:00:00Z","version":"1.0.0"}`, rr.Body.String())
}

func TestAPI_Handler_Routing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockJobRepo := mocks.NewMockJobRepositoryInterface(ctrl)
	mockJobRepo.EXPECT().GetJob(gomock.Any(), "01J").Return(nil, repository.ErrNotFound)

	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	api := NewAPI(mocks.NewMockSubmitterInterface(ctrl), mockJobRepo, slog.New(slog.DiscardHandler), WithWebSocket(ws))

	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/audit/01J/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, StatusResponse{Status: "running", AuditID: "01J"}, status)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(badRequest(errors.New("bad"))))
	assert.Equal(t, http.StatusNotFound, statusFor(ErrAuditNotReady))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.Join(repository.ErrNotFound, errors.New("wrapped"))))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(jobs.ErrCapacityExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		expected string
	}{
		{name: "plain host", domain: "example.com", expected: "seo_audit_example.com_01ABC.csv"},
		{name: "host with port", domain: "example.com:8080", expected: "seo_audit_example.com_01ABC.csv"},
		{name: "ipv6 with port", domain: "[::1]:8080", expected: "seo_audit___1_01ABC.csv"},
		{name: "unsafe characters", domain: `exa*mple?.com`, expected: "seo_audit_exa_mple_.com_01ABC.csv"},
		{name: "empty domain", domain: "", expected: "seo_audit_unknown_01ABC.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.AuditReport{Domain: tt.domain}
			name := exportFilename(r, "01ABC", "csv")
			assert.Equal(t, tt.expected, name)
			assert.NotContains(t, name, ":")
		})
	}
}
