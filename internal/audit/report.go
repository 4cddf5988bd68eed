package audit

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"seoaudit/internal/models"
)

// RenderText renders report as the plain text summary served to humans
func RenderText(report *models.AuditReport) string {
	if report == nil {
		return "No audit results available.\n"
	}

	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintf(&b, "SEO AUDIT REPORT\n%s\n", rule)
	fmt.Fprintf(&b, "Website: %s\n", report.URL)
	fmt.Fprintf(&b, "Audit Date: %s\n", report.AuditTimestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Domain: %s\n", report.Domain)
	if report.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", report.Error)
	}

	fmt.Fprintf(&b, "\nOVERALL SCORES\n%s\n", rule[:30])
	for _, c := range models.Categories {
		fmt.Fprintf(&b, "%s Score: %.1f/100\n", c.Title(), report.Scores.Get(c))
	}
	fmt.Fprintf(&b, "Overall Score: %.1f/100\n", report.Scores.Overall)

	for _, c := range models.Categories {
		findings := report.Findings(c)
		if len(findings) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n%s\n%s\n", strings.ToUpper(c.Title()), rule[:30])
		checks := make([]string, 0, len(findings))
		for check := range findings {
			checks = append(checks, check)
		}
		slices.Sort(checks)

		for _, check := range checks {
			f := findings[check]
			fmt.Fprintf(&b, "%s: %s | Value: %s\n", models.TitleCase(check), f.Status, f.DisplayValue())
			if f.Recommendation != "" {
				fmt.Fprintf(&b, "  -> %s\n", f.Recommendation)
			}
		}
	}

	if ps := report.PageSpeed; ps != nil {
		fmt.Fprintf(&b, "\nPAGESPEED INSIGHTS\n%s\n", rule[:30])
		if ps.Error != "" {
			fmt.Fprintf(&b, "%s\n", ps.Error)
		} else {
			fmt.Fprintf(&b, "Mobile: %s\n", summarizePageSpeed(ps.Mobile))
			fmt.Fprintf(&b, "Desktop: %s\n", summarizePageSpeed(ps.Desktop))
		}
	}

	return b.String()
}
