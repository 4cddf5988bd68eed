package audit

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"
)

// Auditor runs the full pipeline for one page: fetch, parse, analyze, score
type Auditor struct {
	fetcher   *Fetcher
	registry  *Registry
	pagespeed *PageSpeedClient
	apiKey    string
	now       func() time.Time
	log       *slog.Logger
	audits    metric.Int64Counter
}

// AuditorOption configures the Auditor
type AuditorOption func(*Auditor)

// WithLogger sets the logger
func WithLogger(log *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		a.log = log
	}
}

// WithPageSpeed enables PageSpeed runs for requests carrying an API key
func WithPageSpeed(c *PageSpeedClient) AuditorOption {
	return func(a *Auditor) {
		a.pagespeed = c
	}
}

// WithDefaultAPIKey sets the PageSpeed key used when a request omits one
func WithDefaultAPIKey(key string) AuditorOption {
	return func(a *Auditor) {
		a.apiKey = key
	}
}

// WithClock overrides the audit timestamp source
func WithClock(now func() time.Time) AuditorOption {
	return func(a *Auditor) {
		a.now = now
	}
}

// NewAuditor creates an auditor that fetches with f and analyzes with r
func NewAuditor(f *Fetcher, r *Registry, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		fetcher:  f,
		registry: r,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	counter, err := otel.Meter("seoaudit/audit").Int64Counter("seoaudit.audits",
		metric.WithDescription("Audits run by outcome"))
	if err != nil {
		a.log.Warn("Failed to create audit counter", slog.Any("error", err))
	}
	a.audits = counter

	return a
}

// Audit produces a report for req. Only an unusable URL is returned as an error;
// fetch and parse failures are recorded on the report itself.
func (a *Auditor) Audit(ctx context.Context, req models.AuditRequest) (*models.AuditReport, error) {
	target, domain, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "audit.run")
	defer span.End()
	span.SetAttributes(attribute.String("audit.url", target), attribute.String("audit.domain", domain))

	start := time.Now()
	report := models.NewAuditReport(target, domain, a.now())

	a.log.Info("Audit started", slog.String("url", target))

	in, err := a.load(ctx, target, domain)
	if err != nil {
		report.Error = err.Error()
		tracing.SetError(ctx, err)
		a.log.Warn("Page could not be loaded",
			slog.String("url", target),
			slog.String("kind", KindOf(err).String()),
			slog.Any("error", err))

		// Checks that need the page report ErrNoDocument, the rest still run.
		a.registry.Run(ctx, &Input{URL: target, Domain: domain}, report)
	} else {
		a.registry.Run(ctx, in, report)
		a.runPageSpeed(ctx, target, req.APIKey, report)
	}

	Score(report)

	a.record(ctx, report.Error == "")
	a.log.Info("Audit finished",
		slog.String("url", target),
		slog.Float64("overall_score", report.Scores.Overall),
		slog.Duration("elapsed", time.Since(start)))

	return report, nil
}

func (a *Auditor) load(ctx context.Context, target, domain string) (*Input, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.fetch")
	defer span.End()

	res, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", res.Meta.StatusCode))

	doc, err := ParseDocument(res.Body, res.Meta.Header.Get("Content-Type"))
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	return &Input{URL: target, Domain: domain, Doc: doc, Meta: &res.Meta}, nil
}

func (a *Auditor) runPageSpeed(ctx context.Context, target, apiKey string, report *models.AuditReport) {
	if a.pagespeed == nil {
		return
	}
	if apiKey == "" {
		apiKey = a.apiKey
	}

	ctx, span := tracing.StartSpan(ctx, "audit.pagespeed")
	defer span.End()

	report.PageSpeed = a.pagespeed.Report(ctx, target, apiKey)
}

func (a *Auditor) record(ctx context.Context, ok bool) {
	if a.audits == nil {
		return
	}
	result := "completed"
	if !ok {
		result = "aborted"
	}
	a.audits.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
