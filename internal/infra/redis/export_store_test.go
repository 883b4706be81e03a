package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/vietddude/renderwatch/internal/monitoring/export"
)

func TestKeyHelpers(t *testing.T) {
	at := time.UnixMilli(1767268800123)

	if got := exportKey(at, export.FormatJSON); got != "renderwatch:export:1767268800123:json" {
		t.Errorf("unexpected export key %q", got)
	}
	if got := latestKey(export.FormatCSV); got != "renderwatch:export:latest:csv" {
		t.Errorf("unexpected latest key %q", got)
	}
	if !strings.HasPrefix(indexKey(), keyPrefix+":") {
		t.Errorf("index key %q missing prefix", indexKey())
	}
}

func TestExportKeysSortByTime(t *testing.T) {
	earlier := exportKey(time.UnixMilli(1000), export.FormatXML)
	later := exportKey(time.UnixMilli(2000), export.FormatXML)
	if earlier == later {
		t.Fatal("expected distinct keys per export time")
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{URL: "redis://localhost:6379/0"}).Enabled() {
		t.Error("config with url should be enabled")
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient(Config{URL: "not-a-url"}); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestExportStore_ImplementsDestination(t *testing.T) {
	var _ export.Destination = (*ExportStore)(nil)
}
