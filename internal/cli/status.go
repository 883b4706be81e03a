package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/renderwatch/internal/monitoring/health"
)

var serverAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health, metrics and active alerts of a running server",
	Run:   runStatus,
}

var ackCmd = &cobra.Command{
	Use:   "ack [alert-id]",
	Short: "Acknowledge an alert on a running server",
	Args:  cobra.ExactArgs(1),
	Run:   runAck,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, ackCmd} {
		c.Flags().StringVar(&serverAddr, "addr", "http://localhost:8090", "address of the renderwatch server")
		rootCmd.AddCommand(c)
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	report, err := fetchStatus(cmd.Context(), serverAddr)
	if err != nil {
		slog.Error("Failed to fetch status", "error", err)
		os.Exit(1)
	}
	printStatus(report)
}

func runAck(cmd *cobra.Command, args []string) {
	if err := ackAlert(cmd.Context(), serverAddr, args[0]); err != nil {
		slog.Error("Failed to acknowledge alert", "id", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Alert %s acknowledged\n", args[0])
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func fetchStatus(ctx context.Context, addr string) (health.Report, error) {
	var report health.Report
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(addr, "/")+"/health/detailed", nil)
	if err != nil {
		return report, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return report, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return report, fmt.Errorf("decode status (HTTP %d): %w", resp.StatusCode, err)
	}
	return report, nil
}

func ackAlert(ctx context.Context, addr, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/alerts/"+id+"/ack", nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("alert %s not found", id)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func printStatus(r health.Report) {
	m := r.Metrics

	fmt.Printf("Status: %s (uptime %s, %d records)\n\n", strings.ToUpper(string(r.Status)), r.Uptime, r.RecordsTracked)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "METRIC\tVALUE")
	_, _ = fmt.Fprintln(w, "------\t-----")
	_, _ = fmt.Fprintf(w, "Operations\t%d\n", m.TotalOperations)
	_, _ = fmt.Fprintf(w, "Success rate\t%.2f%%\n", m.SuccessRate)
	_, _ = fmt.Fprintf(w, "Avg render time\t%.0fms\n", m.AverageRenderTimeMs)
	_, _ = fmt.Fprintf(w, "Avg memory\t%.1fMB\n", m.AverageMemoryMB)
	_ = w.Flush()

	fmt.Println()
	if len(r.ActiveAlerts) == 0 {
		fmt.Println("No active alerts")
		return
	}
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSEVERITY\tTYPE\tMESSAGE")
	_, _ = fmt.Fprintln(w, "--\t--------\t----\t-------")
	for _, a := range r.ActiveAlerts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Severity, a.Type, a.Message)
	}
	_ = w.Flush()
}
