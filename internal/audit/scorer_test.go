package audit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"seoaudit/internal/models"
)

func findingsWith(statuses ...models.Status) models.CategoryFindings {
	out := models.CategoryFindings{}
	for i, s := range statuses {
		check := string(rune('a' + i))
		out[check] = models.Finding{Check: check, Status: s}
	}
	return out
}

func TestCategoryScore(t *testing.T) {
	tests := []struct {
		name     string
		findings models.CategoryFindings
		expected float64
	}{
		{name: "empty category", findings: models.CategoryFindings{}, expected: 0},
		{name: "all good", findings: findingsWith(models.StatusGood, models.StatusGood), expected: 100},
		{name: "mixed", findings: findingsWith(models.StatusGood, models.StatusNeedsImprovement, models.StatusPoor), expected: 50},
		{name: "rounded to one decimal", findings: findingsWith(models.StatusGood, models.StatusPoor, models.StatusPoor), expected: 33.3},
		{name: "errors only", findings: findingsWith(models.StatusError, models.StatusError), expected: 0},
		{name: "external tools carry no points", findings: findingsWith(models.StatusGood, models.StatusRequiresExternalTools), expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryScore(tt.findings)
			assert.Equal(t, tt.expected, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestOverallScore(t *testing.T) {
	assert.Equal(t, 0.0, OverallScore(nil))
	assert.Equal(t, 0.0, OverallScore([]float64{0, 0}))
	assert.Equal(t, 75.0, OverallScore([]float64{100, 50, 0}))
	assert.Equal(t, 66.7, OverallScore([]float64{100, 50, 50}))
}

func TestScore_ErrorOnlyCategoryExcluded(t *testing.T) {
	report := models.NewAuditReport("https://example.com", "example.com", fixedNow)
	report.AddFinding(models.Finding{Category: models.CategoryTechnicalSEO, Check: "a", Status: models.StatusGood})
	report.AddFinding(models.Finding{Category: models.CategoryOnPageSEO, Check: "b", Status: models.StatusNeedsImprovement})
	report.AddFinding(models.ErrorFinding(models.CategoryOffPageSEO, "c", errors.New("lookup failed")))

	Score(report)

	assert.Equal(t, 100.0, report.Scores.TechnicalSEO)
	assert.Equal(t, 50.0, report.Scores.OnPageSEO)
	assert.Equal(t, 0.0, report.Scores.OffPageSEO)
	assert.Equal(t, 75.0, report.Scores.Overall)
}
