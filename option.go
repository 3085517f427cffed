package tempo

import "time"

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithClock substitutes the time source. Tests use this with a FakeClock to
// drive triggers deterministically.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLocation sets the time zone schedules are evaluated in. The default is
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithLogger sets the logger the scheduler reports through.
func WithLogger(logger Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithVerboseLogger is WithLogger plus info-level activity, for debugging a
// scheduler's arm/fire cycle.
func WithVerboseLogger(l interface{ Printf(string, ...any) }) Option {
	return func(s *Scheduler) {
		s.logger = VerbosePrintfLogger(l)
	}
}

// WithChain wraps every task the scheduler runs in the given wrappers,
// outermost first.
func WithChain(wrappers ...TaskWrapper) Option {
	return func(s *Scheduler) {
		s.chain = NewChain(wrappers...)
	}
}

// WithHooks installs observability callbacks for scheduler lifecycle events.
func WithHooks(hooks Hooks) Option {
	return func(s *Scheduler) {
		s.hooks = &hooks
	}
}
