package audit

import (
	"context"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seoaudit/internal/models"
)

func userExperienceAnalyzers() []Analyzer {
	c := models.CategoryUserExperience
	return []Analyzer{
		documentAnalyzer(c, models.CheckNavigation, analyzeNavigation),
		documentAnalyzer(c, models.CheckAccessibility, analyzeAccessibility),
		documentAnalyzer(c, models.CheckResponsiveDesign, analyzeResponsiveDesign),
	}
}

func analyzeNavigation(_ context.Context, in *Input) (models.Finding, error) {
	navs := in.Doc.Find("nav, menu")
	links := []models.LinkSample{}
	navs.Each(func(_ int, nav *goquery.Selection) {
		nav.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			links = append(links, models.LinkSample{
				Text: strings.TrimSpace(a.Text()),
				Href: a.AttrOr("href", ""),
			})
		})
	})

	sample := links
	if len(sample) > 10 {
		sample = sample[:10]
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Improve navigation structure",
		Details: &models.NavigationDetails{
			NavigationElements: navs.Length(),
			NavigationLinks:    len(links),
			SampleNavLinks:     sample,
		},
	}
	if len(links) > 5 {
		f.Status = models.StatusGood
		f.Recommendation = "Good navigation structure"
	}
	return f, nil
}

func analyzeAccessibility(_ context.Context, in *Input) (models.Finding, error) {
	images := in.Doc.Find("img")
	withAlt := images.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("alt", "") != ""
	}).Length()

	d := &models.AccessibilityDetails{
		ImagesWithAlt:    withAlt,
		TotalImages:      images.Length(),
		FormLabels:       in.Doc.Find("label").Length(),
		TotalInputs:      in.Doc.Find("input, textarea, select").Length(),
		AriaLabels:       in.Doc.Find("[aria-label]").Length(),
		HeadingStructure: in.Doc.Find("h1").Length() > 0,
		SkipLinks:        in.Doc.Find(`a[href^="#"]`).Length(),
	}

	var score float64
	if d.TotalImages > 0 {
		score += float64(d.ImagesWithAlt) / float64(d.TotalImages) * 30
	}
	if d.TotalInputs > 0 {
		score += float64(d.FormLabels) / float64(d.TotalInputs) * 30
	}
	score += math.Min(float64(d.AriaLabels*5), 20)
	if d.HeadingStructure {
		score += 10
	}
	score += math.Min(float64(d.SkipLinks*5), 10)
	d.AccessibilityScore = round1(score)

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Improve accessibility features",
		Score:          models.Float(d.AccessibilityScore),
		Details:        d,
	}
	if score >= 70 {
		f.Status = models.StatusGood
		f.Recommendation = "Good accessibility implementation"
	}
	return f, nil
}

func analyzeResponsiveDesign(_ context.Context, in *Input) (models.Finding, error) {
	content, hasViewport := in.Doc.MetaByName("viewport")
	mediaQueries := strings.Count(in.Doc.Serialized(), "@media")

	d := &models.ResponsiveDetails{
		HasViewportMeta:      hasViewport,
		CSSMediaQueriesFound: mediaQueries,
	}
	if hasViewport {
		d.ViewportContent = &content
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Implement responsive design",
		Details:        d,
	}
	if hasViewport {
		f.Recommendation = "Responsive design indicators found"
		if mediaQueries > 0 {
			f.Status = models.StatusGood
		}
	}
	return f, nil
}
