package models

import (
	"time"
)

// Job represents an audit job domain model
type Job struct {
	ID          string       `json:"id"`
	URL         string       `json:"url"`
	Status      JobStatus    `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	StartedAt   *time.Time   `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	Report      *AuditReport `json:"report,omitempty"`
}

// JobStatus represents the overall status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether a job may move from s to next.
// Jobs move pending -> running -> completed|failed exactly once.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// AuditRequest is a validated request to audit one page
type AuditRequest struct {
	URL    string
	APIKey string
}

// Category groups related checks
type Category string

const (
	CategoryTechnicalSEO        Category = "technical_seo"
	CategoryOnPageSEO           Category = "on_page_seo"
	CategoryOffPageSEO          Category = "off_page_seo"
	CategoryUserExperience      Category = "user_experience"
	CategorySecurityPerformance Category = "security_performance"
)

// Categories lists every category in report order
var Categories = []Category{
	CategoryTechnicalSEO,
	CategoryOnPageSEO,
	CategoryOffPageSEO,
	CategoryUserExperience,
	CategorySecurityPerformance,
}

// Title returns the human readable category name
func (c Category) Title() string {
	return TitleCase(string(c))
}

// Status is the outcome of a single check
type Status string

const (
	StatusGood                  Status = "good"
	StatusNeedsImprovement      Status = "needs_improvement"
	StatusPoor                  Status = "poor"
	StatusError                 Status = "error"
	StatusRequiresExternalTools Status = "requires_external_tools"
)

// Points returns the score contribution of s and whether s carries points at all
func (s Status) Points() (float64, bool) {
	switch s {
	case StatusGood:
		return 100, true
	case StatusNeedsImprovement:
		return 50, true
	case StatusPoor, StatusError:
		return 0, true
	default:
		return 0, false
	}
}

// Scores holds per category scores and the overall score
type Scores struct {
	TechnicalSEO        float64 `json:"technical_seo_score"`
	OnPageSEO           float64 `json:"on_page_seo_score"`
	OffPageSEO          float64 `json:"off_page_seo_score"`
	UserExperience      float64 `json:"user_experience_score"`
	SecurityPerformance float64 `json:"security_performance_score"`
	Overall             float64 `json:"overall_score"`
}

// Get returns the score of category c
func (s Scores) Get(c Category) float64 {
	switch c {
	case CategoryTechnicalSEO:
		return s.TechnicalSEO
	case CategoryOnPageSEO:
		return s.OnPageSEO
	case CategoryOffPageSEO:
		return s.OffPageSEO
	case CategoryUserExperience:
		return s.UserExperience
	case CategorySecurityPerformance:
		return s.SecurityPerformance
	}
	return 0
}

// Set stores the score of category c
func (s *Scores) Set(c Category, v float64) {
	switch c {
	case CategoryTechnicalSEO:
		s.TechnicalSEO = v
	case CategoryOnPageSEO:
		s.OnPageSEO = v
	case CategoryOffPageSEO:
		s.OffPageSEO = v
	case CategoryUserExperience:
		s.UserExperience = v
	case CategorySecurityPerformance:
		s.SecurityPerformance = v
	}
}

// CategoryFindings maps check names to findings within one category
type CategoryFindings map[string]Finding

// AuditReport is the complete result of auditing one page
type AuditReport struct {
	AuditID             string           `json:"audit_id,omitempty"`
	URL                 string           `json:"url"`
	Domain              string           `json:"domain"`
	AuditTimestamp      time.Time        `json:"audit_timestamp"`
	TechnicalSEO        CategoryFindings `json:"technical_seo"`
	OnPageSEO           CategoryFindings `json:"on_page_seo"`
	OffPageSEO          CategoryFindings `json:"off_page_seo"`
	UserExperience      CategoryFindings `json:"user_experience"`
	SecurityPerformance CategoryFindings `json:"security_performance"`
	PageSpeed           *PageSpeedReport `json:"pagespeed_insights,omitempty"`
	Scores              Scores           `json:"scores"`
	Error               string           `json:"error,omitempty"`
}

// NewAuditReport creates an empty report with every category initialised
func NewAuditReport(url, domain string, ts time.Time) *AuditReport {
	return &AuditReport{
		URL:                 url,
		Domain:              domain,
		AuditTimestamp:      ts,
		TechnicalSEO:        CategoryFindings{},
		OnPageSEO:           CategoryFindings{},
		OffPageSEO:          CategoryFindings{},
		UserExperience:      CategoryFindings{},
		SecurityPerformance: CategoryFindings{},
	}
}

// Findings returns the findings of category c
func (r *AuditReport) Findings(c Category) CategoryFindings {
	switch c {
	case CategoryTechnicalSEO:
		return r.TechnicalSEO
	case CategoryOnPageSEO:
		return r.OnPageSEO
	case CategoryOffPageSEO:
		return r.OffPageSEO
	case CategoryUserExperience:
		return r.UserExperience
	case CategorySecurityPerformance:
		return r.SecurityPerformance
	}
	return nil
}

// AddFinding files f under its category, replacing any finding with the same check name
func (r *AuditReport) AddFinding(f Finding) {
	target := r.Findings(f.Category)
	if target == nil {
		return
	}
	target[f.Check] = f
}

// Finding returns the finding for check in category c
func (r *AuditReport) Finding(c Category, check string) (Finding, bool) {
	f, ok := r.Findings(c)[check]
	return f, ok
}

// PageSpeedReport holds third party performance results per device strategy
type PageSpeedReport struct {
	Mobile  *PageSpeedResult `json:"mobile,omitempty"`
	Desktop *PageSpeedResult `json:"desktop,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// PageSpeedResult is the outcome of one PageSpeed run
type PageSpeedResult struct {
	Strategy           string                       `json:"strategy"`
	PerformanceScore   float64                      `json:"performance_score"`
	AccessibilityScore float64                      `json:"accessibility_score"`
	BestPracticesScore float64                      `json:"best_practices_score"`
	SEOScore           float64                      `json:"seo_score"`
	CoreWebVitals      map[string]WebVital          `json:"core_web_vitals"`
	PerformanceMetrics map[string]PerformanceMetric `json:"performance_metrics"`
	Opportunities      []Opportunity                `json:"opportunities"`
	Error              string                       `json:"error,omitempty"`
}

// WebVital is one Core Web Vitals measurement
type WebVital struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue"`
	Score        float64 `json:"score"`
	IdealRange   string  `json:"ideal_range"`
	Status       Status  `json:"status"`
}

// PerformanceMetric is one lab metric reported by PageSpeed
type PerformanceMetric struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue"`
	Score        float64 `json:"score"`
}

// Opportunity is a suggested performance improvement
type Opportunity struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Savings     string  `json:"savings"`
	Score       float64 `json:"score"`
}
