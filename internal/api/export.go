package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net"
	"regexp"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"seoaudit/internal/models"
)

const exportSheet = "SEO Audit"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

var exportHeader = []string{"Category", "Item", "Status", "Value", "Recommendation"}

// exportRows flattens the findings of r into spreadsheet rows, categories in report order
func exportRows(r *models.AuditReport) [][]string {
	var rows [][]string
	for _, c := range models.Categories {
		findings := r.Findings(c)
		for _, check := range slices.Sorted(maps.Keys(findings)) {
			f := findings[check]
			rec := f.Recommendation
			if rec == "" {
				rec = "N/A"
			}
			rows = append(rows, []string{
				c.Title(),
				models.TitleCase(check),
				string(f.Status),
				f.DisplayValue(),
				rec,
			})
		}
	}
	return rows
}

// exportFilename names a download after the audited host. Ports are dropped and
// characters that are not portable in file names are replaced.
func exportFilename(r *models.AuditReport, id, ext string) string {
	domain := r.Domain
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}
	domain = unsafeFilenameChars.ReplaceAllString(strings.Trim(domain, "[]"), "_")
	if domain == "" {
		domain = "unknown"
	}
	return fmt.Sprintf("seo_audit_%s_%s.%s", domain, id, ext)
}

func writeJSONReport(w io.Writer, r *models.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeCSV(w io.Writer, r *models.AuditReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	return cw.WriteAll(exportRows(r))
}

func writeXLSX(w io.Writer, r *models.AuditReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	rows := append([][]string{exportHeader}, exportRows(r)...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "E1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "A", "D", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "E", "E", 80); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
