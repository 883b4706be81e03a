package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/aggregator"
	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func setup(t *testing.T, records int, failed int) (*Exporter, *aggregator.Aggregator, *alerting.Manager) {
	t.Helper()
	agg := aggregator.New(aggregator.DefaultConfig(), aggregator.WithClock(clock))
	mgr := alerting.NewManager(alerting.DefaultConfig(), alerting.WithClock(clock))
	agg.Subscribe(func(s domain.PerformanceMetrics, recent []domain.DiagnosticRecord) {
		mgr.Evaluate(s, recent)
	})

	for i := 0; i < records; i++ {
		rec := domain.DiagnosticRecord{
			DocumentURL: "https://cdn.example.com/doc.pdf",
			EndTime:     fixedNow.Add(-time.Duration(records-i) * time.Second),
			Method:      domain.MethodCanvas,
			Stage:       domain.StageComplete,
		}
		if i < failed {
			rec.Stage = domain.StageError
			rec.Errors = []domain.ErrorEvent{{
				Type:      domain.ErrorTypeNetwork,
				Stage:     domain.StageFetching,
				Method:    domain.MethodCanvas,
				Timestamp: rec.EndTime,
				Message:   "failed to fetch",
			}}
		}
		agg.Ingest(rec)
	}
	return New(agg, mgr, WithClock(clock)), agg, mgr
}

// =============================================================================
// Formats
// =============================================================================

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "CSV": FormatCSV, " xml ": FormatXML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("yaml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Encode(Payload{}, Format("pdf"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestExport_JSONRoundTrip(t *testing.T) {
	e, _, _ := setup(t, 7, 2)

	out, err := e.Export(FormatJSON)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	metrics := raw["metrics"].(map[string]any)
	assert.EqualValues(t, 7, metrics["totalOperations"])
	for _, key := range []string{"alerts", "feedback", "history", "exportedAt"} {
		assert.Contains(t, raw, key)
	}

	var parsed Payload
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, 7, parsed.Metrics.TotalOperations)
	assert.Equal(t, 2, parsed.Metrics.FailedOperations)
	assert.Len(t, parsed.History, 7)
	assert.True(t, parsed.ExportedAt.Equal(fixedNow))
}

func TestExport_EmptyStateHasEmptyLists(t *testing.T) {
	e, _, _ := setup(t, 0, 0)

	out, err := e.Export(FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"alerts": []`)
	assert.Contains(t, out, `"history": []`)
}

func TestExport_CSV(t *testing.T) {
	e, _, mgr := setup(t, 4, 4)
	_, err := mgr.SubmitFeedback(domain.UserFeedback{RecordID: "r1", Rating: 4, Comment: "slow, but fine"})
	require.NoError(t, err)

	out, err := e.Export(FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, csvHeader, rows[0])

	kinds := map[string]int{}
	for _, r := range rows[1:] {
		require.Len(t, r, len(csvHeader))
		kinds[r[0]]++
		if r[0] == "metric" && r[3] == "totalOperations" {
			assert.Equal(t, "4", r[4])
		}
		if r[0] == "feedback" {
			assert.Equal(t, "slow, but fine", r[5])
		}
	}
	assert.Equal(t, 4, kinds["record"])
	assert.Equal(t, 1, kinds["feedback"])
	assert.Positive(t, kinds["alert"])
	assert.Equal(t, 4, kinds["trend"])
}

func TestExport_XML(t *testing.T) {
	e, _, _ := setup(t, 3, 1)

	out, err := e.Export(FormatXML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, xml.Header))

	var doc xmlDocument
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 3, doc.Metrics.TotalOperations)
	assert.Len(t, doc.History, 3)
	assert.Len(t, doc.Metrics.MethodSuccessRates, len(domain.RenderMethods()))
}

// =============================================================================
// Report
// =============================================================================

func TestReport_Sections(t *testing.T) {
	e, _, _ := setup(t, 10, 5)
	report := e.Report()

	sections := []string{
		"PDF Rendering Diagnostics Report",
		"Performance Metrics",
		"Error Rates",
		"Method Success Rates",
		"Active Alerts",
		"Trends",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(report, s)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}

	assert.Contains(t, report, "network-error: 50.00%")
	assert.NotContains(t, report, "timeout-error:")
	assert.Contains(t, report, "[HIGH]")
}

func TestReport_NoErrorsNoAlerts(t *testing.T) {
	e, _, _ := setup(t, 2, 0)
	report := e.Report()
	assert.Contains(t, report, "No errors recorded")
	assert.Contains(t, report, "Active Alerts\n-------------\nNone")
}

// =============================================================================
// Destinations
// =============================================================================

type failingDestination struct{ calls int }

func (f *failingDestination) Name() string { return "failing" }

func (f *failingDestination) Write(context.Context, Document) error {
	f.calls++
	return errors.New("unavailable")
}

func TestPublish_File(t *testing.T) {
	dir := t.TempDir()
	fd, err := NewFileDestination(dir)
	require.NoError(t, err)

	_, agg, mgr := setup(t, 2, 0)
	e := New(agg, mgr, WithClock(clock), WithDestinations(fd))
	require.NoError(t, e.Publish(context.Background(), FormatJSON))

	path := filepath.Join(dir, "diagnostics-"+strconv.FormatInt(fixedNow.UnixMilli(), 10)+".json")
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"totalOperations": 2`)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPublish_HTTP(t *testing.T) {
	var gotType, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hd, err := NewHTTPDestination(srv.URL, "k1", nil)
	require.NoError(t, err)

	_, agg, mgr := setup(t, 1, 0)
	e := New(agg, mgr, WithClock(clock), WithDestinations(hd))
	require.NoError(t, e.Publish(context.Background(), FormatCSV))

	assert.Equal(t, "text/csv", gotType)
	assert.Equal(t, "Bearer k1", gotAuth)
	assert.True(t, strings.HasPrefix(gotBody, "record_type,id,timestamp"))
}

func TestPublish_AttemptsEveryDestination(t *testing.T) {
	dir := t.TempDir()
	fd, err := NewFileDestination(dir)
	require.NoError(t, err)
	bad := &failingDestination{}

	_, agg, mgr := setup(t, 1, 0)
	e := New(agg, mgr, WithClock(clock), WithDestinations(bad, fd))

	err = e.Publish(context.Background(), FormatXML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 1, bad.calls)

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "file destination should still be written")
}

func TestDestinations_RequireTarget(t *testing.T) {
	_, err := NewFileDestination("")
	assert.Error(t, err)
	_, err = NewHTTPDestination(" ", "", nil)
	assert.Error(t, err)
}
