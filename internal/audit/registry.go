package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"time"

	"seoaudit/internal/models"
)

// Input is everything an analyzer may inspect. Doc is nil when the page could not be fetched.
type Input struct {
	URL    string
	Domain string
	Doc    *Document
	Meta   *TransportMetadata
}

// IsHTTPS reports whether the audited URL uses a secure scheme
func (in *Input) IsHTTPS() bool {
	u, err := url.Parse(in.URL)
	return err == nil && u.Scheme == "https"
}

// Analyzer produces one finding for one check
type Analyzer interface {
	Name() string
	Category() models.Category
	Analyze(ctx context.Context, in *Input) (models.Finding, error)
}

// AnalyzeFunc is the body of a function backed analyzer
type AnalyzeFunc func(ctx context.Context, in *Input) (models.Finding, error)

type funcAnalyzer struct {
	category models.Category
	name     string
	fn       AnalyzeFunc
}

// NewAnalyzer wraps fn as an Analyzer for check name in category c
func NewAnalyzer(c models.Category, name string, fn AnalyzeFunc) Analyzer {
	return &funcAnalyzer{category: c, name: name, fn: fn}
}

func (a *funcAnalyzer) Name() string              { return a.name }
func (a *funcAnalyzer) Category() models.Category { return a.category }

func (a *funcAnalyzer) Analyze(ctx context.Context, in *Input) (models.Finding, error) {
	return a.fn(ctx, in)
}

// documentAnalyzer wraps fn so it reports ErrNoDocument when nothing was parsed
func documentAnalyzer(c models.Category, name string, fn AnalyzeFunc) Analyzer {
	return NewAnalyzer(c, name, func(ctx context.Context, in *Input) (models.Finding, error) {
		if in.Doc == nil || in.Meta == nil {
			return models.Finding{}, ErrNoDocument
		}
		return fn(ctx, in)
	})
}

// FindingRecorder records the outcome of each analyzer run
type FindingRecorder interface {
	RecordFinding(category, check, status string, duration float64)
}

// Registry runs a fixed, ordered set of analyzers
type Registry struct {
	analyzers []Analyzer
	log       *slog.Logger
	metrics   FindingRecorder
}

// RegistryOption configures the Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// WithFindingRecorder sets the metrics collector
func WithFindingRecorder(m FindingRecorder) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates a registry running analyzers in the given order
func NewRegistry(analyzers []Analyzer, opts ...RegistryOption) *Registry {
	r := &Registry{
		analyzers: analyzers,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Analyzers returns the registered analyzers in run order
func (r *Registry) Analyzers() []Analyzer {
	return r.analyzers
}

// Run invokes every analyzer and files the findings into report
func (r *Registry) Run(ctx context.Context, in *Input, report *models.AuditReport) {
	for _, a := range r.analyzers {
		start := time.Now()
		f := r.runOne(ctx, a, in)
		if r.metrics != nil {
			r.metrics.RecordFinding(string(f.Category), f.Check, string(f.Status), time.Since(start).Seconds())
		}
		report.AddFinding(f)
	}
}

func (r *Registry) runOne(ctx context.Context, a Analyzer, in *Input) (f models.Finding) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Analyzer panicked",
				slog.String("check", a.Name()),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			f = models.ErrorFinding(a.Category(), a.Name(), fmt.Errorf("analyzer panicked: %v", p))
		}
	}()

	f, err := a.Analyze(ctx, in)
	if err != nil {
		r.log.Warn("Analyzer failed",
			slog.String("check", a.Name()),
			slog.String("kind", KindOf(err).String()),
			slog.Any("error", err))
		return models.ErrorFinding(a.Category(), a.Name(), err)
	}

	f.Category = a.Category()
	f.Check = a.Name()
	return f
}
