package audit

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seoaudit/internal/models"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func onPageAnalyzers() []Analyzer {
	c := models.CategoryOnPageSEO
	return []Analyzer{
		documentAnalyzer(c, models.CheckTitleTags, analyzeTitle),
		documentAnalyzer(c, models.CheckMetaDescription, analyzeMetaDescription),
		documentAnalyzer(c, models.CheckHeadingStructure, analyzeHeadings),
		documentAnalyzer(c, models.CheckImageOptimization, analyzeImages),
		documentAnalyzer(c, models.CheckInternalLinking, analyzeInternalLinks),
		documentAnalyzer(c, models.CheckContentAnalysis, analyzeContent),
	}
}

func analyzeTitle(_ context.Context, in *Input) (models.Finding, error) {
	title := in.Doc.Title()
	length := charCount(title)
	optimal := length >= 30 && length <= 60

	status := models.StatusNeedsImprovement
	if optimal {
		status = models.StatusGood
	}

	return models.Finding{
		Status:         status,
		Recommendation: fmt.Sprintf("Title length is %d characters. Optimal range is 30-60 characters.", length),
		Details:        &models.TitleDetails{Title: title, Length: length, OptimalLength: optimal},
	}, nil
}

func analyzeMetaDescription(_ context.Context, in *Input) (models.Finding, error) {
	desc, _ := in.Doc.MetaByName("description")
	desc = strings.TrimSpace(desc)
	length := charCount(desc)
	optimal := length >= 120 && length <= 160

	status := models.StatusNeedsImprovement
	if optimal {
		status = models.StatusGood
	}

	return models.Finding{
		Status:         status,
		Recommendation: fmt.Sprintf("Meta description length is %d characters. Optimal range is 120-160 characters.", length),
		Details: &models.MetaDescriptionDetails{
			Description:   desc,
			Length:        length,
			Exists:        desc != "",
			OptimalLength: optimal,
		},
	}, nil
}

func analyzeHeadings(_ context.Context, in *Input) (models.Finding, error) {
	headings := make(map[string][]string, 6)
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		texts := []string{}
		in.Doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, truncate(strings.TrimSpace(s.Text()), 100))
		})
		headings[tag] = texts
	}

	h1Count := len(headings["h1"])
	hasH2 := len(headings["h2"]) > 0
	proper := h1Count == 1 && hasH2

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Ensure single H1 and proper heading hierarchy",
		Details: &models.HeadingDetails{
			Headings:        headings,
			H1Count:         h1Count,
			HasSingleH1:     h1Count == 1,
			HasH2Tags:       hasH2,
			ProperHierarchy: proper,
		},
	}
	if proper {
		f.Status = models.StatusGood
		f.Recommendation = "Good heading structure"
	}
	return f, nil
}

func analyzeImages(_ context.Context, in *Input) (models.Finding, error) {
	images := in.Doc.Find("img")
	total := images.Length()
	withAlt := 0
	samples := []models.ImageSample{}

	images.Each(func(i int, s *goquery.Selection) {
		alt := s.AttrOr("alt", "")
		if alt != "" {
			withAlt++
		}
		if i >= 10 {
			return
		}
		loading := s.AttrOr("loading", "")
		samples = append(samples, models.ImageSample{
			Src:          truncate(s.AttrOr("src", ""), 100),
			HasAlt:       alt != "",
			AltText:      truncate(alt, 50),
			Loading:      loading,
			IsLazyLoaded: loading == "lazy",
		})
	})

	var pct float64
	if total > 0 {
		pct = float64(withAlt) / float64(total) * 100
	}

	f := models.Finding{
		Status:         models.StatusGood,
		Recommendation: "Good image optimization",
		Details: &models.ImageDetails{
			TotalImages:    total,
			ImagesWithAlt:  withAlt,
			AltPercentage:  round1(pct),
			SampleAnalysis: samples,
		},
	}
	if pct < 90 {
		f.Status = models.StatusNeedsImprovement
		f.Recommendation = fmt.Sprintf("Add alt text to %d images", total-withAlt)
	}
	return f, nil
}

var externalHrefPrefixes = []string{"http://", "https://", "mailto:", "tel:", "#"}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func analyzeInternalLinks(_ context.Context, in *Input) (models.Finding, error) {
	links := []models.LinkSample{}
	in.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" || hasAnyPrefix(href, externalHrefPrefixes) {
			return
		}
		links = append(links, models.LinkSample{
			Href:  href,
			Text:  truncate(strings.TrimSpace(s.Text()), 50),
			Title: s.AttrOr("title", ""),
		})
	})

	sample := links
	if len(sample) > 10 {
		sample = sample[:10]
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Add more internal links for better navigation",
		Details:        &models.InternalLinkDetails{TotalInternalLinks: len(links), SampleLinks: sample},
	}
	if len(links) > 5 {
		f.Status = models.StatusGood
		f.Recommendation = "Good internal linking"
	}
	return f, nil
}

func analyzeContent(_ context.Context, in *Input) (models.Finding, error) {
	text := in.Doc.VisibleText()
	words := len(strings.Fields(text))

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	var avg float64
	if sentences > 0 {
		avg = float64(words) / float64(sentences)
	}

	f := models.Finding{
		Status:         models.StatusNeedsImprovement,
		Recommendation: "Add more content for better SEO",
		Details: &models.ContentDetails{
			WordCount:            words,
			SentenceCount:        sentences,
			AvgSentenceLength:    round1(avg),
			EstimatedReadingTime: round1(float64(words) / 200),
		},
	}
	if words >= 300 {
		f.Status = models.StatusGood
		f.Recommendation = "Good content length"
	}
	return f, nil
}

// round1 rounds v to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
