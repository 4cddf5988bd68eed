package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	pagespeedonline "google.golang.org/api/pagespeedonline/v5"

	"seoaudit/internal/models"
)

// NoAPIKeyMessage is recorded when page performance is requested without a key
const NoAPIKeyMessage = "No API key provided"

var (
	pageSpeedCategories  = []string{"PERFORMANCE", "ACCESSIBILITY", "BEST_PRACTICES", "SEO"}
	performanceMetricIDs = []string{"first-contentful-paint", "total-blocking-time", "speed-index", "interactive"}
	opportunityIDs       = []string{"unused-css-rules", "unused-javascript", "modern-image-formats", "render-blocking-resources"}
)

var webVitals = []struct {
	key        string
	audit      string
	scale      float64
	idealRange string
}{
	{"lcp", "largest-contentful-paint", 1000, "≤ 2.5s"},
	{"cls", "cumulative-layout-shift", 1, "≤ 0.1"},
	{"inp", "interaction-to-next-paint", 1, "≤ 200ms"},
}

// PageSpeedClient queries the PageSpeed Insights API
type PageSpeedClient struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	metrics  RequestRecorder
	log      *slog.Logger
}

// NewPageSpeedClient creates a client against endpoint, or the public API when empty.
// endpoint is the API root, the service path is appended by the client library.
func NewPageSpeedClient(client *http.Client, endpoint string, timeout time.Duration, rec RequestRecorder, log *slog.Logger) *PageSpeedClient {
	if client == nil {
		client = http.DefaultClient
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &PageSpeedClient{client: client, endpoint: endpoint, timeout: timeout, metrics: rec, log: log}
}

// Report runs both device strategies. Per strategy failures are recorded on that strategy's result.
func (c *PageSpeedClient) Report(ctx context.Context, target, apiKey string) *models.PageSpeedReport {
	if apiKey == "" {
		return &models.PageSpeedReport{Error: NoAPIKeyMessage}
	}

	report := &models.PageSpeedReport{}
	for _, strategy := range []string{"mobile", "desktop"} {
		res, err := c.Run(ctx, target, apiKey, strategy)
		if err != nil {
			c.log.Warn("PageSpeed run failed",
				slog.String("strategy", strategy),
				slog.String("kind", KindOf(err).String()),
				slog.Any("error", err))
			res = &models.PageSpeedResult{Strategy: strategy, Error: err.Error()}
		}
		if strategy == "mobile" {
			report.Mobile = res
		} else {
			report.Desktop = res
		}
	}
	return report
}

func (c *PageSpeedClient) service(ctx context.Context) (*pagespeedonline.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.client)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return pagespeedonline.NewService(ctx, opts...)
}

// Run queries one device strategy
func (c *PageSpeedClient) Run(ctx context.Context, target, apiKey, strategy string) (*models.PageSpeedResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	svc, err := c.service(ctx)
	if err != nil {
		return nil, ConfigError("pagespeed", err.Error())
	}

	start := time.Now()
	resp, err := svc.Pagespeedapi.Runpagespeed(target).
		Strategy(strategy).
		Category(pageSpeedCategories...).
		Context(ctx).
		Do(googleapi.QueryParameter("key", apiKey))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			c.metrics.RecordHTTPClientRequest(apiErr.Code, time.Since(start).Seconds(), http.MethodGet, "pagespeed")
			return nil, ExternalServiceError("pagespeed", apiErr.Message)
		}
		c.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), http.MethodGet, "pagespeed")
		return nil, NetworkError("pagespeed", err)
	}
	c.metrics.RecordHTTPClientRequest(resp.HTTPStatusCode, time.Since(start).Seconds(), http.MethodGet, "pagespeed")

	return buildPageSpeedResult(strategy, resp.LighthouseResult), nil
}

func buildPageSpeedResult(strategy string, lr *pagespeedonline.LighthouseResultV5) *models.PageSpeedResult {
	res := &models.PageSpeedResult{
		Strategy:           strategy,
		CoreWebVitals:      map[string]models.WebVital{},
		PerformanceMetrics: map[string]models.PerformanceMetric{},
		Opportunities:      []models.Opportunity{},
	}
	if lr == nil {
		return res
	}

	if cats := lr.Categories; cats != nil {
		res.PerformanceScore = categoryScore(cats.Performance)
		res.AccessibilityScore = categoryScore(cats.Accessibility)
		res.BestPracticesScore = categoryScore(cats.BestPractices)
		res.SEOScore = categoryScore(cats.Seo)
	}

	for _, v := range webVitals {
		a, ok := lr.Audits[v.audit]
		if !ok {
			continue
		}
		score := auditScore(a.Score)
		res.CoreWebVitals[v.key] = models.WebVital{
			Value:        a.NumericValue / v.scale,
			DisplayValue: a.DisplayValue,
			Score:        score,
			IdealRange:   v.idealRange,
			Status:       vitalStatus(score),
		}
	}

	for _, id := range performanceMetricIDs {
		a, ok := lr.Audits[id]
		if !ok {
			continue
		}
		res.PerformanceMetrics[id] = models.PerformanceMetric{
			Value:        a.NumericValue,
			DisplayValue: a.DisplayValue,
			Score:        auditScore(a.Score),
		}
	}

	for _, id := range opportunityIDs {
		a, ok := lr.Audits[id]
		if !ok {
			continue
		}
		details, err := json.Marshal(a.Details)
		if err != nil || !hasDetails(details) {
			continue
		}
		res.Opportunities = append(res.Opportunities, models.Opportunity{
			ID:          id,
			Title:       a.Title,
			Description: a.Description,
			Savings:     a.DisplayValue,
			Score:       auditScore(a.Score),
		})
	}

	return res
}

func categoryScore(cat *pagespeedonline.LighthouseCategoryV5) float64 {
	if cat == nil {
		return 0
	}
	return auditScore(cat.Score) * 100
}

// auditScore reads a lighthouse score, which is null for informative audits
func auditScore(v any) float64 {
	switch s := v.(type) {
	case float64:
		return s
	case json.Number:
		f, _ := s.Float64()
		return f
	default:
		return 0
	}
}

// hasDetails reports whether a details payload is present and not empty
func hasDetails(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return false
	}
	return true
}

func vitalStatus(score float64) models.Status {
	switch {
	case score >= 0.9:
		return models.StatusGood
	case score >= 0.5:
		return models.StatusNeedsImprovement
	default:
		return models.StatusPoor
	}
}

// summarizePageSpeed renders a one line summary of a strategy result
func summarizePageSpeed(r *models.PageSpeedResult) string {
	if r == nil {
		return "not run"
	}
	if r.Error != "" {
		return "error: " + r.Error
	}
	return fmt.Sprintf("performance %.0f, accessibility %.0f, best practices %.0f, seo %.0f",
		r.PerformanceScore, r.AccessibilityScore, r.BestPracticesScore, r.SEOScore)
}
