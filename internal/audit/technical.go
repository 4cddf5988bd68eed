package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"seoaudit/internal/models"
)

const robotsContentLimit = 500

func technicalAnalyzers(d *Dependencies) []Analyzer {
	c := models.CategoryTechnicalSEO
	return []Analyzer{
		documentAnalyzer(c, models.CheckResponseTime, analyzeResponseTime),
		NewAnalyzer(c, models.CheckHTTPSSSL, d.analyzeHTTPS),
		documentAnalyzer(c, models.CheckMobileFriendly, analyzeMobileFriendly),
		documentAnalyzer(c, models.CheckIndexability, analyzeIndexability),
		NewAnalyzer(c, models.CheckXMLSitemap, d.remoteFileAnalyzer(models.CheckXMLSitemap, "/sitemap.xml")),
		NewAnalyzer(c, models.CheckRobotsTxt, d.remoteFileAnalyzer(models.CheckRobotsTxt, "/robots.txt")),
		documentAnalyzer(c, models.CheckCanonicalTags, analyzeCanonical),
		documentAnalyzer(c, models.CheckStructuredData, analyzeStructuredData),
		documentAnalyzer(c, models.CheckBrokenLinks, d.analyzeBrokenLinks),
	}
}

func analyzeResponseTime(_ context.Context, in *Input) (models.Finding, error) {
	elapsed := in.Meta.Elapsed.Seconds()

	status := models.StatusPoor
	switch {
	case elapsed < 1.0:
		status = models.StatusGood
	case elapsed < 3.0:
		status = models.StatusNeedsImprovement
	}

	rec := "Good response time"
	if elapsed > 1.0 {
		rec = "Optimize server response time"
	}

	return models.Finding{Status: status, Value: models.Float(elapsed), Recommendation: rec}, nil
}

func (d *Dependencies) analyzeHTTPS(ctx context.Context, in *Input) (models.Finding, error) {
	isHTTPS := in.IsHTTPS()

	u, err := url.Parse(in.URL)
	if err != nil {
		return models.Finding{}, ParseError("parse url", err)
	}
	sslValid := d.TLS.Verify(ctx, u.Hostname())

	f := models.Finding{
		Status:         models.StatusPoor,
		Recommendation: "Ensure HTTPS is properly implemented",
		Details:        &models.HTTPSDetails{IsHTTPS: isHTTPS, SSLValid: sslValid},
	}
	if isHTTPS {
		f.Status = models.StatusGood
		f.Recommendation = "HTTPS properly implemented"
	}
	return f, nil
}

func analyzeMobileFriendly(_ context.Context, in *Input) (models.Finding, error) {
	content, ok := in.Doc.MetaByName("viewport")
	details := &models.ViewportDetails{HasViewportMeta: ok}
	if ok {
		details.ViewportContent = &content
		return models.Finding{Status: models.StatusGood, Recommendation: "Viewport meta tag found", Details: details}, nil
	}
	return models.Finding{
		Status:         models.StatusPoor,
		Recommendation: "Add viewport meta tag for mobile optimization",
		Details:        details,
	}, nil
}

func analyzeIndexability(_ context.Context, in *Input) (models.Finding, error) {
	content, _ := in.Doc.MetaByName("robots")
	content = strings.ToLower(content)

	noindex := strings.Contains(content, "noindex")
	nofollow := strings.Contains(content, "nofollow")

	tag := content
	if tag == "" {
		tag = "none"
	}

	f := models.Finding{
		Status:         models.StatusGood,
		Recommendation: "Page allows indexing",
		Details: &models.IndexabilityDetails{
			RobotsMetaTag:   tag,
			AllowsIndexing:  !noindex,
			AllowsFollowing: !nofollow,
		},
	}
	if noindex {
		f.Status = models.StatusPoor
		f.Recommendation = "Remove noindex directive"
	}
	return f, nil
}

var remoteFileMessages = map[string][2]string{
	models.CheckXMLSitemap: {"XML sitemap found", "Create and submit XML sitemap"},
	models.CheckRobotsTxt:  {"Robots.txt found", "Create robots.txt file"},
}

// remoteFileAnalyzer checks that a well known file is served under the site root
func (d *Dependencies) remoteFileAnalyzer(check, path string) AnalyzeFunc {
	return func(ctx context.Context, in *Input) (models.Finding, error) {
		base, err := url.Parse(in.URL)
		if err != nil {
			return models.Finding{}, ParseError("parse url", err)
		}
		target := base.ResolveReference(&url.URL{Path: path}).String()

		if d.AuxTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.AuxTimeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return models.Finding{}, ConfigError(check, err.Error())
		}
		req.Header.Set("User-Agent", UserAgent)

		start := time.Now()
		resp, err := d.Client.Do(req)
		if err != nil {
			d.Metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), req.Method, check)
			return models.Finding{}, NetworkError(check, err)
		}
		defer resp.Body.Close()
		d.Metrics.RecordHTTPClientRequest(resp.StatusCode, time.Since(start).Seconds(), req.Method, check)

		details := &models.RemoteFileDetails{
			Check:      check,
			URL:        target,
			Exists:     resp.StatusCode == http.StatusOK,
			StatusCode: resp.StatusCode,
		}

		msgs := remoteFileMessages[check]
		if !details.Exists {
			return models.Finding{Status: models.StatusNeedsImprovement, Recommendation: msgs[1], Details: details}, nil
		}

		if check == models.CheckRobotsTxt {
			body, err := io.ReadAll(io.LimitReader(resp.Body, robotsContentLimit*4))
			if err != nil {
				return models.Finding{}, NetworkError(check, err)
			}
			content := truncate(string(body), robotsContentLimit)
			details.Content = &content
		}

		return models.Finding{Status: models.StatusGood, Recommendation: msgs[0], Details: details}, nil
	}
}

func analyzeCanonical(_ context.Context, in *Input) (models.Finding, error) {
	link := in.Doc.Find(`link[rel~="canonical"]`).First()
	if link.Length() == 0 {
		return models.Finding{
			Status:         models.StatusNeedsImprovement,
			Recommendation: "Add canonical tag to prevent duplicate content issues",
			Details:        &models.CanonicalDetails{},
		}, nil
	}

	details := &models.CanonicalDetails{HasCanonical: true}
	if href, ok := link.Attr("href"); ok {
		details.CanonicalURL = &href
	}
	return models.Finding{Status: models.StatusGood, Recommendation: "Canonical tag implemented", Details: details}, nil
}

func analyzeStructuredData(_ context.Context, in *Input) (models.Finding, error) {
	details := &models.StructuredDataDetails{
		JSONLDScripts:  []models.JSONLDItem{},
		MicrodataItems: []string{},
		RDFaProperties: []string{},
	}

	scripts := in.Doc.Find(`script[type="application/ld+json"]`)
	scripts.Each(func(_ int, s *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		details.JSONLDScripts = append(details.JSONLDScripts, models.JSONLDItem{
			Type:    jsonLDField(data, "@type"),
			Context: jsonLDField(data, "@context"),
		})
	})

	microdata := in.Doc.Find("[itemtype]")
	microdata.Each(func(_ int, s *goquery.Selection) {
		details.MicrodataItems = append(details.MicrodataItems, s.AttrOr("itemtype", ""))
	})

	rdfa := in.Doc.Find("[property]")
	rdfa.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 10 {
			return false
		}
		details.RDFaProperties = append(details.RDFaProperties, s.AttrOr("property", ""))
		return true
	})

	details.TotalSchemas = scripts.Length() + microdata.Length() + rdfa.Length()

	if details.TotalSchemas == 0 {
		return models.Finding{Status: models.StatusNeedsImprovement, Recommendation: "Add structured data markup", Details: details}, nil
	}
	return models.Finding{Status: models.StatusGood, Recommendation: "Structured data found", Details: details}, nil
}

// jsonLDField renders a JSON-LD keyword value, defaulting to "Unknown" when absent
func jsonLDField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return "Unknown"
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "Unknown"
	}
	return string(b)
}

func (d *Dependencies) analyzeBrokenLinks(ctx context.Context, in *Input) (models.Finding, error) {
	result, err := d.Links.Check(ctx, in.Doc, in.URL, in.Domain)
	if err != nil {
		return models.Finding{}, err
	}

	if result.BrokenCount > 0 {
		return models.Finding{Status: models.StatusNeedsImprovement, Recommendation: "Fix broken links", Details: result}, nil
	}
	return models.Finding{Status: models.StatusGood, Recommendation: "No broken links found", Details: result}, nil
}
