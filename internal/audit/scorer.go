package audit

import (
	"seoaudit/internal/models"
)

// CategoryScore averages the points of every point bearing finding. A category without any scores 0.
func CategoryScore(findings models.CategoryFindings) float64 {
	var (
		total float64
		n     int
	)
	for _, f := range findings {
		p, ok := f.Status.Points()
		if !ok {
			continue
		}
		total += p
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(total / float64(n))
}

// OverallScore averages the category scores that are strictly positive.
// Categories scoring exactly zero are left out of the average, so a category
// that failed completely does not pull the overall score down.
func OverallScore(categories []float64) float64 {
	var (
		total float64
		n     int
	)
	for _, s := range categories {
		if s > 0 {
			total += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(total / float64(n))
}

// Score fills the scores block of report from its findings
func Score(report *models.AuditReport) {
	var scores models.Scores
	perCategory := make([]float64, 0, len(models.Categories))
	for _, c := range models.Categories {
		s := CategoryScore(report.Findings(c))
		scores.Set(c, s)
		perCategory = append(perCategory, s)
	}
	scores.Overall = OverallScore(perCategory)
	report.Scores = scores
}
