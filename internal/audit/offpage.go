package audit

import (
	"context"
	"fmt"
	"strings"

	"seoaudit/internal/models"
)

const backlinkNote = "Comprehensive backlink analysis requires specialized tools like Ahrefs, SEMrush, or Moz"

var backlinkRecommendations = []string{
	"Use Google Search Console to monitor backlinks",
	"Build high-quality, relevant backlinks",
	"Monitor for toxic backlinks and disavow if necessary",
	"Create linkable content assets",
}

type socialTag struct {
	key      string
	attr     string
	metaName string
}

var socialTags = []socialTag{
	{"og_title", "property", "og:title"},
	{"og_description", "property", "og:description"},
	{"og_image", "property", "og:image"},
	{"og_url", "property", "og:url"},
	{"twitter_card", "name", "twitter:card"},
	{"twitter_title", "name", "twitter:title"},
	{"twitter_description", "name", "twitter:description"},
	{"twitter_image", "name", "twitter:image"},
}

func offPageAnalyzers(d *Dependencies) []Analyzer {
	c := models.CategoryOffPageSEO
	return []Analyzer{
		NewAnalyzer(c, models.CheckDomainAuthority, d.analyzeDomain),
		documentAnalyzer(c, models.CheckSocialSignals, analyzeSocialSignals),
		NewAnalyzer(c, models.CheckBacklinkAnalysis, analyzeBacklinks),
	}
}

func (d *Dependencies) analyzeDomain(ctx context.Context, in *Input) (models.Finding, error) {
	reg, err := d.Registration.Lookup(ctx, in.Domain)
	if err != nil {
		return models.Finding{}, err
	}

	ageDays := 0
	if !reg.Created.IsZero() {
		ageDays = int(d.Now().Sub(reg.Created).Hours() / 24)
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Established domain",
		Details: &models.DomainDetails{
			DomainAgeDays:  ageDays,
			DomainAgeYears: round1(float64(ageDays) / 365.25),
			Registrar:      reg.Registrar,
		},
	}
	if ageDays > 365 {
		f.Status = models.StatusGood
	}
	if ageDays < 365 {
		f.Recommendation = "Domain age affects trust signals"
	}
	return f, nil
}

func analyzeSocialSignals(_ context.Context, in *Input) (models.Finding, error) {
	tags := make(map[string]*string, len(socialTags))
	present := 0
	for _, t := range socialTags {
		var (
			content string
			ok      bool
		)
		if t.attr == "property" {
			content, ok = in.Doc.MetaByProperty(t.metaName)
		} else {
			content, ok = in.Doc.MetaByName(t.metaName)
		}
		if !ok || strings.TrimSpace(content) == "" {
			tags[t.key] = nil
			continue
		}
		v := content
		tags[t.key] = &v
		present++
	}

	status := models.StatusNeedsImprovement
	if present >= 6 {
		status = models.StatusGood
	}

	return models.Finding{
		Status:         status,
		Recommendation: fmt.Sprintf("Add %d missing social media meta tags", len(socialTags)-present),
		Details: &models.SocialDetails{
			SocialMetaTags: tags,
			TagsPresent:    present,
			TotalPossible:  len(socialTags),
		},
	}, nil
}

func analyzeBacklinks(_ context.Context, _ *Input) (models.Finding, error) {
	recs := make([]string, len(backlinkRecommendations))
	copy(recs, backlinkRecommendations)
	return models.Finding{
		Status:  models.StatusRequiresExternalTools,
		Details: &models.BacklinkDetails{Note: backlinkNote, Recommendations: recs},
	}, nil
}
