package tempo

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Schedule describes a task's duty cycle.
type Schedule interface {
	// Next returns the next activation time, strictly after the given time.
	// The zero time means no activation exists within the schedule's horizon.
	Next(time.Time) time.Time
}

// TaskFunc is the work a task runs. The returned slice is consulted only in
// iterative mode, where it becomes the argument list of the next run.
type TaskFunc func(args ...any) []any

// StopCallback runs in place of a stopped task's next execution, receiving
// the arguments that execution would have received.
type StopCallback func(args ...any)

// RunMode selects how a task's chain feeds its executions.
type RunMode int

const (
	// RunChain invokes the task function with the same arguments every time.
	RunChain RunMode = iota
	// RunIterative feeds each execution's return value to the next one.
	RunIterative
)

func (m RunMode) String() string {
	switch m {
	case RunChain:
		return "chain"
	case RunIterative:
		return "iterative"
	default:
		return "unknown"
	}
}

// TaskStatus is a task's position in the registry state machine.
type TaskStatus int

const (
	// StatusAbsent means no task with that name exists.
	StatusAbsent TaskStatus = iota
	// StatusIdle means the task is registered but has no active chain.
	StatusIdle
	// StatusRunning means a chain of executions is armed or in flight.
	StatusRunning
)

func (s TaskStatus) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// TaskInfo is a by-value snapshot of one task. It never aliases live
// registry state.
type TaskInfo struct {
	// Name is the registry key of the task.
	Name string

	// Status is the task's state at snapshot time.
	Status TaskStatus

	// Mode is the run mode of the task's most recent start.
	Mode RunMode

	// NextRun is the instant the armed trigger counts down to, or the zero
	// time when no trigger is armed.
	NextRun time.Time

	// LastError is the most recent scheduling-runtime failure (an
	// unsatisfiable schedule at arm time, or a panic in the task function),
	// or nil.
	LastError error
}

// chainSeq is the per-start state one chain goroutine answers to. A Stop
// marks the sequence stopped and deposits the callback; the goroutine reads
// both at its next boundary. A later Start creates a fresh chainSeq, so a
// goroutine still draining an old sequence can never mistake the new chain's
// running status for its own.
type chainSeq struct {
	mode    RunMode
	stopped bool
	onStop  StopCallback
}

// taskEntry is the live registry value for one task. Every read-modify-write
// of an entry happens under the scheduler's mutex; the chain goroutine
// re-acquires it at each boundary decision so that a concurrent Stop and an
// in-flight re-arm never both believe they have authority.
type taskEntry struct {
	name     string
	schedule Schedule
	fn       TaskFunc
	status   TaskStatus
	chain    *chainSeq
	trigger  *Trigger
	nextRun  time.Time
	lastErr  error
}

// Scheduler is a named-task registry orchestrating repeated, cancellable,
// live-reconfigurable execution. Each running task owns one chain goroutine
// that arms a Trigger per activation; re-arming is an explicit loop, so
// unbounded chains never grow the stack. Schedulers are independent: callers
// may construct as many as they like.
type Scheduler struct {
	mu       sync.Mutex
	tasks    map[string]*taskEntry
	clock    Clock
	logger   Logger
	location *time.Location
	chain    Chain
	hooks    *Hooks
}

// NewScheduler returns a scheduler modified by the given options.
// See the With* options for clock, logger, location, middleware chain and
// observability hooks.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:    make(map[string]*taskEntry),
		clock:    RealClock{},
		logger:   DefaultLogger,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now returns the current time in the scheduler's location.
func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.location)
}

// Add registers a task: absent to idle. It reports whether the task was
// added; adding an existing name, a nil schedule or a nil function is a
// no-op.
func (s *Scheduler) Add(name string, schedule Schedule, fn TaskFunc) bool {
	if schedule == nil || fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[name]; exists {
		return false
	}
	s.tasks[name] = &taskEntry{
		name:     name,
		schedule: schedule,
		fn:       fn,
		status:   StatusIdle,
	}
	s.logger.Info("add", "task", name)
	return true
}

// Remove deletes an idle task: idle to absent. It reports whether the task
// was removed; removing a running or unknown task is a no-op.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[name]
	if !ok || e.status != StatusIdle {
		return false
	}
	delete(s.tasks, name)
	s.logger.Info("remove", "task", name)
	return true
}

// UpdateRule replaces a task's schedule in place, regardless of status. The
// change is lazy: an already-armed trigger keeps its computed instant, and
// the new schedule is consulted at the next re-arm. Stop then Start (or
// Restart) to apply it immediately. Unknown names and nil schedules are
// no-ops.
func (s *Scheduler) UpdateRule(name string, schedule Schedule) {
	if schedule == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tasks[name]; ok {
		e.schedule = schedule
		s.logger.Info("update rule", "task", name)
	}
}

// UpdateFunc replaces a task's function in place, with the same lazy
// semantics as UpdateRule. Unknown names and nil functions are no-ops.
func (s *Scheduler) UpdateFunc(name string, fn TaskFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tasks[name]; ok {
		e.fn = fn
		s.logger.Info("update fn", "task", name)
	}
}

// Start begins a task's chain: every activation invokes the function with
// the given arguments. A no-op if the task is unknown or already running.
func (s *Scheduler) Start(name string, args ...any) {
	s.start(name, RunChain, args)
}

// StartIterative begins a task's chain in iterative mode: each execution's
// return value becomes the argument list of the next execution, seeded by
// the given arguments. A no-op if the task is unknown or already running.
func (s *Scheduler) StartIterative(name string, args ...any) {
	s.start(name, RunIterative, args)
}

func (s *Scheduler) start(name string, mode RunMode, args []any) {
	s.mu.Lock()
	e, ok := s.tasks[name]
	if !ok || e.status == StatusRunning {
		s.mu.Unlock()
		return
	}
	seq := &chainSeq{mode: mode}
	e.status = StatusRunning
	e.chain = seq
	e.lastErr = nil
	s.mu.Unlock()
	s.logger.Info("start", "task", name, "mode", mode.String())
	go s.runChain(e, seq, args)
}

// Stop requests the end of a task's chain. If a trigger is still counting
// down, the redirect wins and cb runs with the arguments that wait had
// captured; if the task function is mid-flight, the re-arm boundary observes
// the stop and runs cb with the arguments the next execution would have
// received. Either way nothing is ever scheduled after Stop, and cb runs
// exactly once. Omitting cb stops silently. A no-op on idle or unknown
// tasks.
func (s *Scheduler) Stop(name string, cb ...StopCallback) {
	callback := StopCallback(func(...any) {})
	if len(cb) > 0 && cb[0] != nil {
		callback = cb[0]
	}
	s.mu.Lock()
	e, ok := s.tasks[name]
	if !ok || e.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	e.status = StatusIdle
	e.chain.stopped = true
	e.chain.onStop = callback
	trig := e.trigger
	s.mu.Unlock()
	s.logger.Info("stop", "task", name)
	if trig != nil {
		trig.Redirect(callback)
	}
}

// StopAll stops every running task in the registry. The callback, if given,
// runs once per stopped task.
func (s *Scheduler) StopAll(cb ...StopCallback) {
	s.mu.Lock()
	names := make([]string, 0, len(s.tasks))
	for name, e := range s.tasks {
		if e.status == StatusRunning {
			names = append(names, name)
		}
	}
	s.mu.Unlock()
	for _, name := range names {
		s.Stop(name, cb...)
	}
}

// Restart stops the task and starts it again in its original run mode,
// forcing pending UpdateRule/UpdateFunc changes to take effect immediately
// (a fresh start recomputes the next run from the current schedule). When
// args are given they seed the new chain; otherwise the arguments pending at
// stop time carry over. A no-op if the task is not running.
func (s *Scheduler) Restart(name string, args ...any) {
	s.mu.Lock()
	e, ok := s.tasks[name]
	if !ok || e.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	mode := e.chain.mode
	s.mu.Unlock()
	s.Stop(name, func(pending ...any) {
		seed := pending
		if len(args) > 0 {
			seed = args
		}
		s.start(name, mode, seed)
	})
}

// Status returns the task's current state: StatusAbsent for unknown names.
func (s *Scheduler) Status(name string) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tasks[name]; ok {
		return e.status
	}
	return StatusAbsent
}

// Task returns a snapshot of the named task. The second return is false for
// unknown names.
func (s *Scheduler) Task(name string) (TaskInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[name]
	if !ok {
		return TaskInfo{}, false
	}
	return snapshotEntry(e), true
}

// Tasks returns a snapshot of the whole registry, sorted by task name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	infos := make([]TaskInfo, 0, len(s.tasks))
	for _, e := range s.tasks {
		infos = append(infos, snapshotEntry(e))
	}
	s.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func snapshotEntry(e *taskEntry) TaskInfo {
	info := TaskInfo{
		Name:      e.name,
		Status:    e.status,
		NextRun:   e.nextRun,
		LastError: e.lastErr,
	}
	if e.chain != nil {
		info.Mode = e.chain.mode
	}
	return info
}

// runChain drives one task's chain of executions. Each iteration arms one
// trigger and waits out its decision; re-arming is this loop, not a
// recursive call, so the stack stays flat for unbounded run counts. The
// entry mutex is re-acquired at every boundary, and seq is the authority on
// whether this goroutine still owns the task: a concurrent Stop is always
// observed before anything new is scheduled.
func (s *Scheduler) runChain(e *taskEntry, seq *chainSeq, args []any) {
	for {
		s.mu.Lock()
		if seq.stopped {
			// Stop landed while the previous execution was in flight (or
			// before the first arm). Honor it here: run the pending
			// callback with the arguments the next execution would have
			// received, and schedule nothing further.
			cb := s.finishLocked(e, seq, nil)
			s.mu.Unlock()
			if cb != nil {
				cb(args...)
			}
			return
		}
		schedule := e.schedule
		fn := s.chain.Then(e.fn)
		s.mu.Unlock()

		next := schedule.Next(s.now())

		s.mu.Lock()
		if seq.stopped {
			cb := s.finishLocked(e, seq, nil)
			s.mu.Unlock()
			if cb != nil {
				cb(args...)
			}
			return
		}
		if next.IsZero() {
			// The schedule has no activation within its horizon. Losing
			// this silently in a background goroutine is a defect: park
			// the task and surface the failure through its state.
			err := fmt.Errorf("tempo: no activation within horizon for task %q", e.name)
			e.status = StatusIdle
			cb := s.finishLocked(e, seq, err)
			s.mu.Unlock()
			s.logger.Error(err, "park", "task", e.name)
			s.hooks.callOnScheduleError(e.name, err)
			if cb != nil {
				cb(args...)
			}
			return
		}
		trig := newTrigger(s.clock, next)
		e.trigger = trig
		e.nextRun = next
		s.mu.Unlock()
		s.hooks.callOnSchedule(e.name, next)
		s.logger.Info("arm", "task", e.name, "next", next)

		d := trig.await()
		if d.outcome != outcomeProceed {
			// An external cancel or redirect won before the timer fired.
			// The callback receives the arguments captured for this wait.
			s.mu.Lock()
			cb := s.finishLocked(e, seq, nil)
			s.mu.Unlock()
			s.logger.Info("unarmed", "task", e.name)
			if cb != nil {
				cb(args...)
			}
			return
		}

		s.hooks.callOnTaskStart(e.name, next)
		started := s.clock.Now()
		out, panicErr := s.invoke(fn, args)
		s.hooks.callOnTaskComplete(e.name, s.clock.Now().Sub(started), panicErr)
		if panicErr != nil {
			s.mu.Lock()
			e.lastErr = panicErr
			s.mu.Unlock()
			s.logger.Error(panicErr, "task panicked", "task", e.name)
		} else if seq.mode == RunIterative {
			args = out
		}
		// Loop: the next iteration re-checks seq under the lock before
		// anything is re-armed.
	}
}

// finishLocked clears the entry's transient state (only while seq still owns
// it) and hands back the pending stop callback, at most once. Caller holds
// s.mu.
func (s *Scheduler) finishLocked(e *taskEntry, seq *chainSeq, err error) StopCallback {
	cb := seq.onStop
	seq.onStop = nil
	if e.chain == seq {
		e.trigger = nil
		e.nextRun = time.Time{}
	}
	if err != nil {
		e.lastErr = err
	}
	return cb
}

// invoke runs the task function, containing panics so a misbehaving task
// never kills its chain goroutine or the process.
func (s *Scheduler) invoke(fn TaskFunc, args []any) (out []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tempo: task panic: %v", r)
		}
	}()
	return fn(args...), nil
}
