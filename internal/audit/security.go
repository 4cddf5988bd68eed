package audit

import (
	"context"
	"fmt"
	"strings"

	"seoaudit/internal/models"
)

var securityHeaders = []struct {
	key    string
	header string
}{
	{"content_security_policy", "Content-Security-Policy"},
	{"x_frame_options", "X-Frame-Options"},
	{"x_content_type_options", "X-Content-Type-Options"},
	{"strict_transport_security", "Strict-Transport-Security"},
	{"referrer_policy", "Referrer-Policy"},
	{"x_xss_protection", "X-XSS-Protection"},
}

var cdnIndicators = []string{"cloudflare", "amazonaws", "azure", "googleusercontent", "fastly", "maxcdn"}

func securityPerformanceAnalyzers() []Analyzer {
	c := models.CategorySecurityPerformance
	return []Analyzer{
		documentAnalyzer(c, models.CheckSecurityHeaders, analyzeSecurityHeaders),
		documentAnalyzer(c, models.CheckPerformanceEnhancements, analyzePerformanceEnhancements),
	}
}

func analyzeSecurityHeaders(_ context.Context, in *Input) (models.Finding, error) {
	values := make(map[string]*string, len(securityHeaders))
	present := 0
	for _, h := range securityHeaders {
		v := in.Meta.Header.Get(h.header)
		if v == "" {
			values[h.key] = nil
			continue
		}
		values[h.key] = &v
		present++
	}

	total := len(securityHeaders)
	score := round1(float64(present) / float64(total) * 100)

	status := models.StatusNeedsImprovement
	if present >= 4 {
		status = models.StatusGood
	}

	return models.Finding{
		Status:         status,
		Score:          models.Float(score),
		Recommendation: fmt.Sprintf("Implement %d missing security headers", total-present),
		Details: &models.SecurityHeadersDetails{
			SecurityHeaders: values,
			HeadersPresent:  present,
			TotalPossible:   total,
			SecurityScore:   score,
		},
	}, nil
}

func analyzePerformanceEnhancements(_ context.Context, in *Input) (models.Finding, error) {
	h := in.Meta.Header
	server := strings.ToLower(h.Get("Server"))

	d := &models.PerformanceDetails{
		GzipCompression:    strings.Contains(strings.ToLower(h.Get("Content-Encoding")), "gzip"),
		CacheControl:       h.Get("Cache-Control") != "",
		ETag:               h.Get("ETag") != "",
		LastModified:       h.Get("Last-Modified") != "",
		ServerResponseTime: in.Meta.Elapsed.Seconds(),
		LazyLoadingImages:  in.Doc.Find(`img[loading="lazy"]`).Length(),
	}
	if cl := h.Get("Content-Length"); cl != "" {
		d.ContentLength = &cl
	}
	for _, cdn := range cdnIndicators {
		if strings.Contains(server, cdn) {
			d.CDNUsage = true
			break
		}
	}

	weights := []struct {
		on     bool
		points int
	}{
		{d.GzipCompression, 20},
		{d.CacheControl, 20},
		{d.ETag, 15},
		{d.LastModified, 15},
		{d.LazyLoadingImages > 0, 15},
		{d.CDNUsage, 15},
	}
	for _, w := range weights {
		if w.on {
			d.PerformanceScore += w.points
		}
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Implement performance optimizations",
		Score:          models.Float(float64(d.PerformanceScore)),
		Details:        d,
	}
	if d.PerformanceScore >= 70 {
		f.Status = models.StatusGood
		f.Recommendation = "Good performance optimizations"
	}
	return f, nil
}
