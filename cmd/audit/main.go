package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/internal/log"
	"seoaudit/internal/metrics"
	"seoaudit/internal/models"
)

func main() {
	cfg := config.NewAuditConfig()

	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	apiKey := fs.String("api-key", cfg.PageSpeedAPIKey, "PageSpeed Insights API key")
	outDir := fs.String("out", ".", "directory for the JSON results file")
	noSave := fs.Bool("no-save", false, "print the report without writing a results file")
	verbose := fs.Bool("v", false, "log pipeline progress to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: audit [flags] <url>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := log.Setup(log.Opts{ServiceName: "seoaudit-cli", Level: level, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor := audit.NewFromConfig(cfg, metrics.NewNoopAuditMetrics(), logger)
	report, err := auditor.Audit(ctx, models.AuditRequest{URL: fs.Arg(0), APIKey: *apiKey})
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(audit.RenderText(report))

	if *noSave {
		return
	}

	path, err := saveReport(*outDir, report, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to save results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results saved to %s\n", path)
}

// saveReport writes report as indented JSON named after its domain and ts
func saveReport(dir string, report *models.AuditReport, ts time.Time) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	domain := report.Domain
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}
	name := fmt.Sprintf("seo_audit_%s_%s.json", domain, ts.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
