// Package availability decides whether the primary canvas renderer can run in
// a client environment.
package availability

// Reason explains why the primary renderer is unavailable.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonLibraryUnavailable   Reason = "library-unavailable"
	ReasonWorkerFailure        Reason = "worker-failure"
	ReasonUnsupportedFeatures  Reason = "unsupported-features"
	ReasonRenderingErrors      Reason = "rendering-errors"
	ReasonSecurityRestrictions Reason = "security-restrictions"
)

// Check names an individual capability probe.
type Check string

const (
	CheckLibrary Check = "library"
	CheckBrowser Check = "browser"
	CheckSurface Check = "surface"
	CheckWorker  Check = "worker"
)

// Environment exposes the capability probes of a client.
type Environment interface {
	LibraryLoaded() bool
	BrowserContext() bool
	CanCreateSurface() bool
	WorkerSupported() bool
}

// Result is either available, or unavailable with the failing check and its reason.
type Result struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason,omitempty"`
	Check     Check  `json:"check,omitempty"`
}

func available() Result {
	return Result{Available: true}
}

func unavailable(check Check, reason Reason) Result {
	return Result{Reason: reason, Check: check}
}

type probe struct {
	check  Check
	reason Reason
	ok     func(Environment) bool
}

// Order matters: the first failing probe supplies the reason.
var probes = []probe{
	{CheckLibrary, ReasonLibraryUnavailable, Environment.LibraryLoaded},
	{CheckBrowser, ReasonUnsupportedFeatures, Environment.BrowserContext},
	{CheckSurface, ReasonUnsupportedFeatures, Environment.CanCreateSurface},
	{CheckWorker, ReasonWorkerFailure, Environment.WorkerSupported},
}

// Detector runs the probes against an environment. Results are never cached
// because capabilities change, e.g. once the library finishes loading.
type Detector struct {
	env Environment
}

// NewDetector creates a detector for env. A nil env is treated as a
// non-browser environment with nothing loaded.
func NewDetector(env Environment) *Detector {
	if env == nil {
		env = StaticEnvironment{}
	}
	return &Detector{env: env}
}

// Detect runs the probes in order and stops at the first failure.
func (d *Detector) Detect() Result {
	for _, p := range probes {
		if !p.ok(d.env) {
			return unavailable(p.check, p.reason)
		}
	}
	return available()
}
