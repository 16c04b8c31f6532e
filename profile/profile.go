package profile

// Profiler describes one profiling session.
type Profiler struct {
	// Mode selects what is profiled; see [Modes]. Profiling is disabled when
	// it is empty or unknown.
	Mode string
	// Path is the directory receiving the profile.
	Path string
	// Quiet suppresses the profiler's own start and stop messages.
	Quiet bool
}

// Option modifies a Profiler.
type Option func(Profiler) Profiler

// New returns a Profiler configured by opts.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// WithMode sets the profiling mode.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet sets whether the profiler reports its own activity.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Stopper ends a profiling session.
type Stopper interface{ Stop() }

// Start begins profiling and returns the session to stop. It returns a
// no-op session when profiling is not compiled in or p.Mode is not a
// supported mode. Stop is always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
