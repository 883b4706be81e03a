package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vietddude/renderwatch/internal/monitoring/metrics"
)

// Document is one encoded export ready to leave the process.
type Document struct {
	Format     Format
	Body       string
	ExportedAt time.Time
}

// Destination receives encoded exports.
type Destination interface {
	// Name labels the destination in logs and metrics
	Name() string

	// Write stores or sends a single document
	Write(ctx context.Context, doc Document) error
}

// Publish encodes the current state once and writes it to every destination.
// All destinations are attempted; their errors are joined.
func (e *Exporter) Publish(ctx context.Context, format Format) error {
	p := e.Collect()
	body, err := Encode(p, format)
	if err != nil {
		return err
	}
	doc := Document{Format: format, Body: body, ExportedAt: p.ExportedAt}

	var errs []error
	for _, d := range e.dests {
		result := "ok"
		if err := d.Write(ctx, doc); err != nil {
			result = "error"
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			slog.Warn("Export failed", "destination", d.Name(), "format", format, "error", err)
		}
		metrics.ExportsTotal.WithLabelValues(string(format), d.Name(), result).Inc()
	}
	return errors.Join(errs...)
}

// Destinations reports how many destinations are configured.
func (e *Exporter) Destinations() int {
	return len(e.dests)
}

// FileDestination writes each export to its own file in a directory.
type FileDestination struct {
	dir string
}

func NewFileDestination(dir string) (*FileDestination, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("export directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &FileDestination{dir: dir}, nil
}

func (f *FileDestination) Name() string { return "file" }

// Write creates diagnostics-<unix-millis>.<format>. The file is written to a
// temporary name first so readers never see a partial export.
func (f *FileDestination) Write(_ context.Context, doc Document) error {
	name := fmt.Sprintf("diagnostics-%d.%s", doc.ExportedAt.UnixMilli(), doc.Format)
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(doc.Body), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// HTTPDestination POSTs exports to a collector endpoint.
type HTTPDestination struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPDestination(endpoint, apiKey string, client *http.Client) (*HTTPDestination, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("export endpoint required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPDestination{endpoint: endpoint, apiKey: strings.TrimSpace(apiKey), client: client}, nil
}

func (h *HTTPDestination) Name() string { return "http" }

func (h *HTTPDestination) Write(ctx context.Context, doc Document) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader([]byte(doc.Body)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", doc.Format.ContentType())
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("export request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("export endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
