package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seoaudit/internal/models"
)

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	report := models.NewAuditReport("https://example.com", "example.com", ts)

	path, err := saveReport(dir, report, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seo_audit_example.com_20250309_140507.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "https://example.com", doc["url"])
	assert.Equal(t, "example.com", doc["domain"])
	assert.Contains(t, string(data), "\n  \"url\"")
}

func TestSaveReport_DropsPort(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	report := models.NewAuditReport("http://localhost:8080", "localhost:8080", ts)

	path, err := saveReport(dir, report, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seo_audit_localhost_20250309_140507.json"), path)
}

func TestSaveReport_MissingDir(t *testing.T) {
	report := models.NewAuditReport("https://example.com", "example.com", time.Now())

	_, err := saveReport(filepath.Join(t.TempDir(), "missing"), report, time.Now())
	assert.Error(t, err)
}
