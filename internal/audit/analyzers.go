package audit

import (
	"net/http"
	"time"
)

const defaultAuxiliaryTimeout = 10 * time.Second

// Dependencies are the collaborators analyzers reach outside the fetched page
type Dependencies struct {
	Client       *http.Client
	AuxTimeout   time.Duration
	TLS          TLSVerifier
	Links        *LinkChecker
	Registration RegistrationLookup
	Now          func() time.Time
	Metrics      RequestRecorder
}

func (d *Dependencies) withDefaults() *Dependencies {
	out := *d
	if out.Client == nil {
		out.Client = http.DefaultClient
	}
	if out.AuxTimeout <= 0 {
		out.AuxTimeout = defaultAuxiliaryTimeout
	}
	if out.Metrics == nil {
		out.Metrics = noopRecorder{}
	}
	if out.TLS == nil {
		out.TLS = TLSDialer{Timeout: out.AuxTimeout}
	}
	if out.Links == nil {
		out.Links = NewLinkChecker(out.Client, WithLinkMetrics(out.Metrics))
	}
	if out.Registration == nil {
		out.Registration = NewRDAPClient(out.Client, "", out.AuxTimeout, out.Metrics)
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

// DefaultAnalyzers returns every check in report order
func DefaultAnalyzers(d Dependencies) []Analyzer {
	deps := d.withDefaults()

	var all []Analyzer
	all = append(all, technicalAnalyzers(deps)...)
	all = append(all, onPageAnalyzers()...)
	all = append(all, offPageAnalyzers(deps)...)
	all = append(all, userExperienceAnalyzers()...)
	all = append(all, securityPerformanceAnalyzers()...)
	return all
}
