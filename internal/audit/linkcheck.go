package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"seoaudit/internal/models"
)

// MaxCheckedLinks bounds the number of anchors sampled per page
const MaxCheckedLinks = 20

var skippedHrefPrefixes = []string{"#", "mailto:", "tel:"}

// LinkChecker checks that a sample of the page's links resolve
type LinkChecker struct {
	client      *http.Client
	timeout     time.Duration
	concurrency int
	limiter     *rate.Limiter
	metrics     RequestRecorder
	log         *slog.Logger
}

// LinkCheckerOption configures the LinkChecker
type LinkCheckerOption func(*LinkChecker)

// WithLinkTimeout sets the per link timeout
func WithLinkTimeout(d time.Duration) LinkCheckerOption {
	return func(p *LinkChecker) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLinkConcurrency sets how many links are checked at once
func WithLinkConcurrency(n int) LinkCheckerOption {
	return func(p *LinkChecker) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLinkRate paces checks to rps requests per second. Zero disables pacing.
func WithLinkRate(rps float64) LinkCheckerOption {
	return func(p *LinkChecker) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLinkMetrics sets the metrics collector
func WithLinkMetrics(m RequestRecorder) LinkCheckerOption {
	return func(p *LinkChecker) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithLinkLogger sets the logger
func WithLinkLogger(log *slog.Logger) LinkCheckerOption {
	return func(p *LinkChecker) {
		p.log = log
	}
}

// NewLinkChecker creates a link checker
func NewLinkChecker(client *http.Client, opts ...LinkCheckerOption) *LinkChecker {
	if client == nil {
		client = http.DefaultClient
	}
	p := &LinkChecker{
		client:      client,
		timeout:     5 * time.Second,
		concurrency: 5,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		metrics:     noopRecorder{},
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type linkCandidate struct {
	url  string
	text string
	err  string
}

type linkOutcome struct {
	broken bool
	link   models.BrokenLink
}

// Check samples the first anchors of doc and reports the ones that do not resolve
func (p *LinkChecker) Check(ctx context.Context, doc *Document, baseURL, domain string) (*models.LinkCheckResult, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, ParseError("parse base url", err)
	}

	candidates := collectLinkCandidates(doc, base)
	result := &models.LinkCheckResult{
		TotalChecked: len(candidates),
		Internal:     []models.BrokenLink{},
		External:     []models.BrokenLink{},
	}
	if len(candidates) == 0 {
		return result, nil
	}

	p.log.Debug("Starting link check", slog.Int("linkCount", len(candidates)))

	outcomes := make([]linkOutcome, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			outcomes[i] = p.check(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if !o.broken {
			continue
		}
		result.BrokenCount++
		if strings.Contains(o.link.URL, domain) {
			result.Internal = append(result.Internal, o.link)
		} else {
			result.External = append(result.External, o.link)
		}
	}

	p.log.Debug("Completed link check",
		slog.Int("linkCount", len(candidates)),
		slog.Int("brokenCount", result.BrokenCount))

	return result, nil
}

// collectLinkCandidates takes the first anchors with an href and drops the ones not worth checking
func collectLinkCandidates(doc *Document, base *url.URL) []linkCandidate {
	var out []linkCandidate
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= MaxCheckedLinks {
			return false
		}
		href := s.AttrOr("href", "")
		if href == "" || hasAnyPrefix(href, skippedHrefPrefixes) {
			return true
		}

		c := linkCandidate{text: truncate(s.Text(), 50)}
		ref, err := url.Parse(href)
		if err != nil {
			c.url = href
			c.err = fmt.Sprintf("Invalid URL: %s", err.Error())
		} else {
			c.url = base.ResolveReference(ref).String()
		}
		out = append(out, c)
		return true
	})
	return out
}

func (p *LinkChecker) check(ctx context.Context, c linkCandidate) linkOutcome {
	broken := func(status int, msg string) linkOutcome {
		return linkOutcome{broken: true, link: models.BrokenLink{URL: c.url, StatusCode: status, Error: msg, Text: c.text}}
	}

	if c.err != "" {
		return broken(0, c.err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return broken(0, describeRequestError(err))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return broken(0, fmt.Sprintf("HEAD request creation failed: %s", err.Error()))
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), http.MethodHead, "link_check")
		p.log.Debug("HEAD request failed", slog.String("url", c.url), slog.Any("error", err))
		return broken(0, describeRequestError(err))
	}
	resp.Body.Close()
	p.metrics.RecordHTTPClientRequest(resp.StatusCode, time.Since(start).Seconds(), http.MethodHead, "link_check")

	if resp.StatusCode >= 400 {
		return broken(resp.StatusCode, "")
	}
	return linkOutcome{}
}
