package fallback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vietddude/renderwatch/internal/rendering/availability"
)

// Viewer chrome parameters understood by browser PDF viewers.
var chromeParams = []string{"toolbar=0", "navpanes=0", "scrollbar=0"}

// ResourceLocator returns the URL to load for method. It is idempotent and
// depends only on its inputs.
func ResourceLocator(originalURL string, method Method) string {
	switch method {
	case MethodNativeEmbed:
		return withViewerFragment(originalURL)
	case MethodDownload:
		return withDownloadQuery(originalURL)
	}
	return originalURL
}

func withViewerFragment(raw string) string {
	base, frag, _ := strings.Cut(raw, "#")

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(frag, "&") {
		if p == "" || isChromeParam(p) {
			continue
		}
		parts = append(parts, p)
	}
	parts = append(parts, chromeParams...)
	return base + "#" + strings.Join(parts, "&")
}

func isChromeParam(p string) bool {
	key, _, _ := strings.Cut(p, "=")
	switch key {
	case "toolbar", "navpanes", "scrollbar":
		return true
	}
	return false
}

func withDownloadQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("download", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

var reasonText = map[availability.Reason]string{
	availability.ReasonNone:                 "the enhanced viewer is unavailable",
	availability.ReasonLibraryUnavailable:   "the document viewer could not be loaded",
	availability.ReasonWorkerFailure:        "the document viewer could not start",
	availability.ReasonUnsupportedFeatures:  "your browser lacks features the enhanced viewer needs",
	availability.ReasonRenderingErrors:      "the enhanced viewer ran into rendering errors",
	availability.ReasonSecurityRestrictions: "browser security settings blocked the document",
}

// BuildNotification returns the user-facing text for a fallback. The result
// is never empty and is the same for the same inputs.
func BuildNotification(method Method, reason availability.Reason) string {
	why, ok := reasonText[reason]
	if !ok {
		why = fmt.Sprintf("the enhanced viewer is unavailable (%s)", reason)
	}

	switch method {
	case MethodNativeEmbed:
		return fmt.Sprintf("Showing this document in your browser's built-in viewer as a fallback because %s.", why)
	case MethodObjectEmbed:
		return fmt.Sprintf("Showing this document with an alternative embedded viewer because %s.", why)
	case MethodDownload:
		return fmt.Sprintf("This document cannot be displayed here because %s. Use the download link to open it.", why)
	}
	return fmt.Sprintf("This document cannot be displayed because %s.", why)
}
