package fallback

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
)

func capableEngine() *Engine {
	return NewEngine(availability.NewDetector(availability.FullyCapable()))
}

func TestDecide_SelectionTable(t *testing.T) {
	e := capableEngine()

	tests := []struct {
		code   classifier.Code
		reason availability.Reason
		want   Method
	}{
		{"", availability.ReasonLibraryUnavailable, MethodNativeEmbed},
		{"", availability.ReasonWorkerFailure, MethodNativeEmbed},
		{"", availability.ReasonUnsupportedFeatures, MethodNativeEmbed},
		{"", availability.ReasonRenderingErrors, MethodNativeEmbed},
		{"", availability.ReasonSecurityRestrictions, MethodDownload},
		{classifier.CodeLibraryUnavailable, "", MethodNativeEmbed},
		{classifier.CodeWorkerInit, "", MethodNativeEmbed},
		{classifier.CodeUnsupportedFormat, "", MethodNativeEmbed},
		{classifier.CodeCORS, "", MethodDownload},
		{classifier.CodePermissionDenied, "", MethodDownload},
		{classifier.CodeCorruptedFile, "", MethodErrorOnly},
		{classifier.CodeInvalidPDF, "", MethodErrorOnly},
		{classifier.CodeTimeout, "", MethodNativeEmbed},
		{"", "", MethodNativeEmbed},
	}

	for _, tt := range tests {
		got := e.Decide(tt.code, tt.reason)
		assert.Equal(t, tt.want, got.Method, "code=%q reason=%q", tt.code, tt.reason)
	}
}

func TestDecide_NothingAbsentMeansNoNotification(t *testing.T) {
	cfg := capableEngine().Decide("", "")
	assert.Equal(t, MethodNativeEmbed, cfg.Method)
	assert.False(t, cfg.ShouldNotify)
	assert.False(t, cfg.UseFallback)
	assert.Empty(t, cfg.Message)
}

func TestDecide_CodeWithoutReasonDoesNotNotify(t *testing.T) {
	e := capableEngine()
	for _, code := range []classifier.Code{
		classifier.CodeTimeout,
		classifier.CodeNetwork,
		classifier.CodeCancelled,
		classifier.CodeUnknown,
	} {
		cfg := e.Decide(code, "")
		assert.False(t, cfg.UseFallback, "code=%s", code)
		assert.False(t, cfg.ShouldNotify, "code=%s", code)
		assert.Empty(t, cfg.Message, "code=%s", code)
	}
}

func TestDecide_DerivedReasonNotifies(t *testing.T) {
	e := capableEngine()

	cfg := e.Decide(classifier.CodeCORS, "")
	assert.True(t, cfg.ShouldNotify)
	assert.NotEmpty(t, cfg.Message)

	cfg = e.Decide(classifier.CodeInvalidPDF, "")
	assert.Equal(t, MethodErrorOnly, cfg.Method)
	assert.True(t, cfg.ShouldNotify)
	assert.Contains(t, cfg.Message, "cannot be displayed")
}

func TestDecide_UsesDetectorReason(t *testing.T) {
	e := NewEngine(availability.NewDetector(availability.StaticEnvironment{}))
	cfg := e.Decide("", "")

	assert.Equal(t, availability.ReasonLibraryUnavailable, cfg.Reason)
	assert.Equal(t, MethodNativeEmbed, cfg.Method)
	assert.True(t, cfg.UseFallback)
	assert.True(t, cfg.ShouldNotify)
	assert.NotEmpty(t, cfg.Message)
}

func TestPermissionDeniedAsymmetry(t *testing.T) {
	e := capableEngine()

	assert.False(t, e.ShouldUseFallback(classifier.CodePermissionDenied))
	cfg := e.Decide(classifier.CodePermissionDenied, "")
	assert.Equal(t, MethodDownload, cfg.Method)
	assert.False(t, cfg.UseFallback)
}

func TestShouldUseFallback(t *testing.T) {
	e := capableEngine()
	for _, code := range []classifier.Code{
		classifier.CodeLibraryUnavailable,
		classifier.CodeWorkerInit,
		classifier.CodeCORS,
		classifier.CodeUnsupportedFormat,
	} {
		assert.True(t, e.ShouldUseFallback(code), code)
	}
	assert.False(t, e.ShouldUseFallback(classifier.CodeTimeout))
	assert.False(t, e.ShouldUseFallback(""))

	broken := NewEngine(availability.NewDetector(availability.StaticEnvironment{Library: true}))
	assert.True(t, broken.ShouldUseFallback(classifier.CodePermissionDenied))
}

func TestBuildNotification(t *testing.T) {
	keywords := []string{"fallback", "alternative", "browser", "download", "cannot be displayed"}
	reasons := []availability.Reason{
		availability.ReasonNone,
		availability.ReasonLibraryUnavailable,
		availability.ReasonWorkerFailure,
		availability.ReasonUnsupportedFeatures,
		availability.ReasonRenderingErrors,
		availability.ReasonSecurityRestrictions,
		availability.Reason("custom"),
	}
	methods := []Method{MethodNativeEmbed, MethodObjectEmbed, MethodDownload, MethodErrorOnly}

	for _, m := range methods {
		for _, r := range reasons {
			msg := BuildNotification(m, r)
			require.NotEmpty(t, msg)
			assert.Equal(t, msg, BuildNotification(m, r))

			found := false
			for _, k := range keywords {
				if strings.Contains(msg, k) {
					found = true
					break
				}
			}
			assert.True(t, found, "message %q has no keyword", msg)
		}
	}
}

func TestResourceLocator_NativeEmbed(t *testing.T) {
	got := ResourceLocator("https://cdn.example.com/docs/a.pdf?v=2#page=3", MethodNativeEmbed)
	assert.Equal(t, "https://cdn.example.com/docs/a.pdf?v=2#page=3&toolbar=0&navpanes=0&scrollbar=0", got)

	plain := ResourceLocator("https://cdn.example.com/a.pdf", MethodNativeEmbed)
	assert.Equal(t, "https://cdn.example.com/a.pdf#toolbar=0&navpanes=0&scrollbar=0", plain)
}

func TestResourceLocator_Idempotent(t *testing.T) {
	inputs := []string{
		"https://cdn.example.com/docs/a.pdf",
		"https://cdn.example.com/docs/a.pdf?v=2#page=3",
		"/files/b.pdf#toolbar=1",
	}
	for _, in := range inputs {
		for _, m := range []Method{MethodNativeEmbed, MethodDownload, MethodObjectEmbed, MethodErrorOnly} {
			once := ResourceLocator(in, m)
			twice := ResourceLocator(once, m)
			assert.Equal(t, once, twice, "%s %s", in, m)
			assert.Equal(t, once, ResourceLocator(in, m))
		}

		native := ResourceLocator(ResourceLocator(in, MethodNativeEmbed), MethodNativeEmbed)
		assert.Contains(t, native, "toolbar=0")
		assert.Equal(t, 1, strings.Count(native, "toolbar="))

		orig, err := url.Parse(in)
		require.NoError(t, err)
		got, err := url.Parse(native)
		require.NoError(t, err)
		assert.Equal(t, orig.Host, got.Host)
		assert.Equal(t, orig.Path, got.Path)
		assert.Equal(t, orig.RawQuery, got.RawQuery)
	}
}

func TestResourceLocator_Download(t *testing.T) {
	got := ResourceLocator("https://cdn.example.com/docs/a.pdf?v=2", MethodDownload)
	u, err := url.Parse(got)
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "cdn.example.com", u.Host)
	assert.Equal(t, "/docs/a.pdf", u.Path)
	assert.Equal(t, "true", u.Query().Get("download"))
	assert.Equal(t, "2", u.Query().Get("v"))
}

func TestResourceLocator_Unchanged(t *testing.T) {
	in := "https://cdn.example.com/a.pdf?x=1#page=2"
	assert.Equal(t, in, ResourceLocator(in, MethodObjectEmbed))
	assert.Equal(t, in, ResourceLocator(in, MethodErrorOnly))
}

func TestDecideFor_SetsURL(t *testing.T) {
	cfg := capableEngine().DecideFor("https://cdn.example.com/a.pdf", classifier.CodeCORS, "")
	assert.Equal(t, MethodDownload, cfg.Method)
	assert.Equal(t, "https://cdn.example.com/a.pdf?download=true", cfg.URL)
	assert.True(t, cfg.UseFallback)
	assert.Contains(t, cfg.Message, "download")
}
