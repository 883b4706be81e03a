package availability

import "testing"

func TestDetect_AllChecksPass(t *testing.T) {
	res := NewDetector(FullyCapable()).Detect()
	if !res.Available || res.Reason != ReasonNone {
		t.Errorf("expected available with no reason, got %+v", res)
	}
}

func TestDetect_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name   string
		env    StaticEnvironment
		check  Check
		reason Reason
	}{
		{"nothing", StaticEnvironment{}, CheckLibrary, ReasonLibraryUnavailable},
		{"no browser", StaticEnvironment{Library: true}, CheckBrowser, ReasonUnsupportedFeatures},
		{"no surface", StaticEnvironment{Library: true, Browser: true, Worker: true}, CheckSurface, ReasonUnsupportedFeatures},
		{"no worker", StaticEnvironment{Library: true, Browser: true, Surface: true}, CheckWorker, ReasonWorkerFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewDetector(tt.env).Detect()
			if res.Available {
				t.Fatal("expected unavailable")
			}
			if res.Check != tt.check || res.Reason != tt.reason {
				t.Errorf("got check=%s reason=%s, want %s/%s", res.Check, res.Reason, tt.check, tt.reason)
			}
		})
	}
}

func TestDetect_NotCached(t *testing.T) {
	loaded := false
	env := ProbeFuncs{
		Library: func() bool { return loaded },
		Browser: func() bool { return true },
		Surface: func() bool { return true },
		Worker:  func() bool { return true },
	}
	d := NewDetector(env)

	if d.Detect().Available {
		t.Fatal("expected unavailable before library load")
	}
	loaded = true
	if !d.Detect().Available {
		t.Error("expected available after library load")
	}
}

func TestDetect_ShortCircuits(t *testing.T) {
	calls := 0
	env := ProbeFuncs{
		Library: func() bool { return false },
		Browser: func() bool { calls++; return true },
	}
	NewDetector(env).Detect()
	if calls != 0 {
		t.Errorf("expected later probes to be skipped, got %d calls", calls)
	}
}

func TestNewDetector_NilEnvironment(t *testing.T) {
	res := NewDetector(nil).Detect()
	if res.Available || res.Reason != ReasonLibraryUnavailable {
		t.Errorf("unexpected result %+v", res)
	}
}
