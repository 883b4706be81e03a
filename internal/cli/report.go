package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/renderwatch/internal/control"
	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
)

var (
	reportInput  string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Replay recorded diagnostics and print a report or export",
	Long: `report ingests a JSON array of diagnostic records, evaluates alerts over
them and prints the plain-text report. With --format it prints an export instead.`,
	Run: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "JSON file with an array of diagnostic records")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "export format instead of the text report (json, csv, xml)")
	_ = reportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging("warn")

	records, err := readRecords(reportInput)
	if err != nil {
		slog.Error("Failed to read records", "error", err)
		os.Exit(1)
	}

	// Offline replay: no server, no shutdown export.
	cfg.Export.Enabled = false
	engine, err := control.New(cfg, control.WithoutServer())
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	for _, rec := range records {
		engine.Record(rec)
	}

	if reportFormat == "" {
		fmt.Print(engine.Report())
		return
	}
	format, err := export.ParseFormat(reportFormat)
	if err != nil {
		slog.Error("Invalid format", "error", err)
		os.Exit(1)
	}
	out, err := engine.Export(format)
	if err != nil {
		slog.Error("Export failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func readRecords(path string) ([]domain.DiagnosticRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []domain.DiagnosticRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
