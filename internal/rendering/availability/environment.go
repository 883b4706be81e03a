package availability

// StaticEnvironment is a snapshot of capabilities reported by a client.
type StaticEnvironment struct {
	Library bool `json:"libraryLoaded"`
	Browser bool `json:"browser"`
	Surface bool `json:"surface"`
	Worker  bool `json:"worker"`
}

// FullyCapable returns an environment where every probe passes.
func FullyCapable() StaticEnvironment {
	return StaticEnvironment{Library: true, Browser: true, Surface: true, Worker: true}
}

func (e StaticEnvironment) LibraryLoaded() bool    { return e.Library }
func (e StaticEnvironment) BrowserContext() bool   { return e.Browser }
func (e StaticEnvironment) CanCreateSurface() bool { return e.Surface }
func (e StaticEnvironment) WorkerSupported() bool  { return e.Worker }

// ProbeFuncs evaluates each capability lazily. Nil funcs report false.
type ProbeFuncs struct {
	Library func() bool
	Browser func() bool
	Surface func() bool
	Worker  func() bool
}

func call(f func() bool) bool {
	return f != nil && f()
}

func (p ProbeFuncs) LibraryLoaded() bool    { return call(p.Library) }
func (p ProbeFuncs) BrowserContext() bool   { return call(p.Browser) }
func (p ProbeFuncs) CanCreateSurface() bool { return call(p.Surface) }
func (p ProbeFuncs) WorkerSupported() bool  { return call(p.Worker) }
