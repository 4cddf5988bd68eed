package audit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap"
	"golang.org/x/net/publicsuffix"
)

const domainLookupFailed = "Could not retrieve domain information"

// Registration is the registry record of a domain
type Registration struct {
	Created   time.Time
	Registrar string
}

// RegistrationLookup resolves registration data for a domain
type RegistrationLookup interface {
	Lookup(ctx context.Context, domain string) (*Registration, error)
}

// RDAPClient looks up registrations over RDAP
type RDAPClient struct {
	client  *rdap.Client
	server  *url.URL
	timeout time.Duration
	metrics RequestRecorder
}

// NewRDAPClient creates a lookup against the RDAP server at endpoint.
// An empty endpoint resolves the authoritative server through IANA bootstrap.
func NewRDAPClient(client *http.Client, endpoint string, timeout time.Duration, rec RequestRecorder) *RDAPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	c := &RDAPClient{
		client:  &rdap.Client{HTTP: client, UserAgent: "seoaudit"},
		timeout: timeout,
		metrics: rec,
	}
	if endpoint != "" {
		if u, err := url.Parse(strings.TrimSuffix(endpoint, "/")); err == nil {
			c.server = u
		}
	}
	return c
}

// Lookup fetches the registration of the registrable part of domain
func (c *RDAPClient) Lookup(ctx context.Context, domain string) (*Registration, error) {
	name := registrableDomain(domain)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := rdap.NewDomainRequest(name).WithContext(ctx)
	if c.server != nil {
		req = req.WithServer(c.server)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), http.MethodGet, "registration_lookup")
		var netErr net.Error
		if errors.As(err, &netErr) || ctx.Err() != nil {
			return nil, &Error{Kind: KindNetwork, Op: "registration lookup", Message: domainLookupFailed, Cause: err}
		}
		return nil, &Error{Kind: KindExternalService, Op: "registration lookup", Message: domainLookupFailed, Cause: err}
	}
	c.metrics.RecordHTTPClientRequest(http.StatusOK, time.Since(start).Seconds(), http.MethodGet, "registration_lookup")

	d, ok := resp.Object.(*rdap.Domain)
	if !ok {
		return nil, &Error{Kind: KindParse, Op: "registration lookup", Message: domainLookupFailed}
	}

	reg := &Registration{}
	for _, e := range d.Events {
		if e.EventAction != "registration" {
			continue
		}
		created, err := time.Parse(time.RFC3339, e.EventDate)
		if err != nil {
			return nil, &Error{Kind: KindParse, Op: "registration lookup", Message: domainLookupFailed, Cause: err}
		}
		reg.Created = created
		break
	}
	for _, ent := range d.Entities {
		if hasRole(ent.Roles, "registrar") && ent.VCard != nil {
			reg.Registrar = ent.VCard.Name()
			break
		}
	}
	return reg, nil
}

// registrableDomain strips ports and subdomains, falling back to the host itself
func registrableDomain(domain string) string {
	host := domain
	if h, _, err := net.SplitHostPort(domain); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return host
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
