package audit

import (
	"log/slog"
	"net/http"

	"seoaudit/internal/config"
	"seoaudit/internal/tracing"
)

// Recorder receives outbound request and per check metrics
type Recorder interface {
	RequestRecorder
	FindingRecorder
}

// NewFromConfig wires a complete auditor from cfg. Every outbound request goes
// through a traced transport and is recorded on rec.
func NewFromConfig(cfg config.AuditConfig, rec Recorder, log *slog.Logger) *Auditor {
	if log == nil {
		log = slog.Default()
	}

	client := &http.Client{Transport: tracing.Transport(http.DefaultTransport)}

	links := NewLinkChecker(client,
		WithLinkTimeout(cfg.LinkTimeout),
		WithLinkConcurrency(cfg.LinkConcurrency),
		WithLinkRate(cfg.LinkRPS),
		WithLinkMetrics(rec),
		WithLinkLogger(log),
	)

	analyzers := DefaultAnalyzers(Dependencies{
		Client:       client,
		AuxTimeout:   cfg.AuxiliaryTimeout,
		TLS:          TLSDialer{Timeout: cfg.AuxiliaryTimeout},
		Links:        links,
		Registration: NewRDAPClient(client, "", cfg.AuxiliaryTimeout, rec),
		Metrics:      rec,
	})

	registry := NewRegistry(analyzers,
		WithRegistryLogger(log),
		WithFindingRecorder(rec),
	)

	return NewAuditor(NewFetcher(client, cfg.FetchTimeout, rec), registry,
		WithLogger(log),
		WithPageSpeed(NewPageSpeedClient(client, "", cfg.PageSpeedTimeout, rec, log)),
		WithDefaultAPIKey(cfg.PageSpeedAPIKey),
	)
}
