package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/backoff"
	"github.com/xraph/invoke/id"
)

// InvokeFunc is the callback the scheduler uses to fire commands.
// This breaks the import cycle: the engine provides the implementation.
// Returning invoke.ErrBusy signals that the invocation was throttled
// downstream; the scheduler defers the occurrence instead of advancing
// past it.
type InvokeFunc func(ctx context.Context, name string, param any) error

// Emitter emits scheduler lifecycle events.
// ext.Registry satisfies this interface via EmitScheduleFired.
type Emitter interface {
	EmitScheduleFired(ctx context.Context, entryName, commandName string)
}

// Gate grants or refuses a fire slot for a group+command pair.
// throttle.Gate satisfies this interface. A Gate keys on Entry.Group,
// which Add leaves empty; wire one only with AddEntry entries that
// carry their command's group. Callers whose InvokeFunc already
// throttles (returning invoke.ErrBusy) should not set a Gate too — the
// same fire would be acquired twice.
type Gate interface {
	Acquire(group, command string) bool
	Release(group, command string)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithGate sets the throttle gate consulted before each fire.
func WithGate(g Gate) Option {
	return func(s *Scheduler) { s.gate = g }
}

// WithDeferral sets the strategy used to space out re-checks while the
// document is busy.
func WithDeferral(strategy backoff.Strategy) Option {
	return func(s *Scheduler) { s.deferral = strategy }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
// Exported for use by engine.Schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler fires commands on cron schedules. Entries only fire while
// the host has an active, quiescent document; otherwise the fire is
// deferred and re-checked on a backoff curve.
type Scheduler struct {
	host     invoke.Host
	invoke   InvokeFunc
	emitter  Emitter
	gate     Gate
	logger   *slog.Logger
	deferral backoff.Strategy

	tickInterval time.Duration

	mu      sync.Mutex
	entries map[string]*Entry

	// parsed caches compiled cron expressions.
	parsedMu sync.RWMutex
	parsed   map[string]cronlib.Schedule

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a Scheduler.
func New(h invoke.Host, fire InvokeFunc, emitter Emitter, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		host:         h,
		invoke:       fire,
		emitter:      emitter,
		logger:       logger,
		deferral:     backoff.DefaultStrategy(),
		tickInterval: 1 * time.Second,
		entries:      make(map[string]*Entry),
		parsed:       make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a new schedule. The first fire time is computed from
// the expression; use AddEntry to seed an explicit NextRunAt.
func (s *Scheduler) Add(name, expr, command string, param any) (*Entry, error) {
	sched, err := s.getOrParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", expr, err)
	}
	next := sched.Next(time.Now())
	e := &Entry{
		ID:        id.NewScheduleID(),
		Name:      name,
		Schedule:  expr,
		Command:   command,
		Param:     param,
		Enabled:   true,
		NextRunAt: &next,
	}
	if err := s.AddEntry(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddEntry registers a prepared entry. The entry's Schedule must parse
// and its Name must be unused.
func (s *Scheduler) AddEntry(e *Entry) error {
	if _, err := s.getOrParseSchedule(e.Schedule); err != nil {
		return fmt.Errorf("scheduler: parse %q: %w", e.Schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.Name]; ok {
		return fmt.Errorf("scheduler: entry %q: %w", e.Name, invoke.ErrDuplicateName)
	}
	if e.ID.IsNil() {
		e.ID = id.NewScheduleID()
	}
	s.entries[e.Name] = e
	return nil
}

// Remove deletes an entry by name. Removing an unknown name is a no-op.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}

// Enable marks an entry as eligible to fire.
func (s *Scheduler) Enable(name string) {
	s.setEnabled(name, true)
}

// Disable stops an entry from firing without removing it.
func (s *Scheduler) Disable(name string) {
	s.setEnabled(name, false)
}

func (s *Scheduler) setEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		e.Enabled = enabled
	}
}

// Entries returns a snapshot of all registered entries.
func (s *Scheduler) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// Start launches the tick goroutine. Starting an already-started
// scheduler is a no-op.
func (s *Scheduler) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("scheduler started",
		slog.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop signals the scheduler to stop and waits for the tick goroutine.
// Stopping a scheduler that is not running is a no-op.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// tickLoop fires on each tick interval and processes due entries.
func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	now := time.Now()

	s.mu.Lock()
	due := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Enabled {
			continue
		}
		if e.NextRunAt == nil || e.NextRunAt.After(now) {
			continue
		}
		if e.deferredUntil.After(now) {
			continue
		}
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fireEntry(ctx, e, now)
	}
}

func (s *Scheduler) fireEntry(ctx context.Context, e *Entry, now time.Time) {
	// A fire needs an active document sitting at a quiescent prompt.
	if !s.host.ActiveDocument(ctx) || !s.host.Quiescent(ctx) {
		s.deferEntry(e, now, "document busy")
		return
	}

	if s.gate != nil {
		if !s.gate.Acquire(e.Group, e.Command) {
			s.deferEntry(e, now, "throttled")
			return
		}
		defer s.gate.Release(e.Group, e.Command)
	}

	fireErr := s.invoke(ctx, e.Command, e.Param)
	if fireErr != nil {
		// A throttled invocation is not a failure: the occurrence is
		// held and re-checked on the deferral curve, like a busy
		// document.
		if errors.Is(fireErr, invoke.ErrBusy) {
			s.deferEntry(e, now, "throttled")
			return
		}
		s.logger.Error("schedule fire error",
			slog.String("entry", e.Name),
			slog.String("command", e.Command),
			slog.String("error", fireErr.Error()),
		)
	}

	// Advance the schedule whether the fire succeeded or not; a failing
	// command should not burn every subsequent tick.
	s.advance(e, now)

	if fireErr == nil && s.emitter != nil {
		s.emitter.EmitScheduleFired(ctx, e.Name, e.Command)
	}

	if fireErr == nil {
		s.logger.Info("schedule fired",
			slog.String("entry", e.Name),
			slog.String("command", e.Command),
		)
	}
}

// deferEntry pushes the entry's next check out on the deferral curve.
func (s *Scheduler) deferEntry(e *Entry, now time.Time, why string) {
	s.mu.Lock()
	e.deferrals++
	delay := s.deferral.Delay(e.deferrals)
	e.deferredUntil = now.Add(delay)
	attempt := e.deferrals
	s.mu.Unlock()

	s.logger.Debug("schedule deferred",
		slog.String("entry", e.Name),
		slog.String("reason", why),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
	)
}

// advance records the fire and computes the next run time.
func (s *Scheduler) advance(e *Entry, now time.Time) {
	sched, err := s.getOrParseSchedule(e.Schedule)
	if err != nil {
		// Validated at Add time; only reachable if the expression was
		// mutated since.
		s.logger.Error("parse schedule error",
			slog.String("entry", e.Name),
			slog.String("schedule", e.Schedule),
			slog.String("error", err.Error()),
		)
		return
	}

	s.mu.Lock()
	last := now
	next := sched.Next(now)
	e.LastRunAt = &last
	e.NextRunAt = &next
	e.deferrals = 0
	e.deferredUntil = time.Time{}
	s.mu.Unlock()
}

// getOrParseSchedule caches compiled cron expressions.
func (s *Scheduler) getOrParseSchedule(expr string) (cronlib.Schedule, error) {
	s.parsedMu.RLock()
	sched, ok := s.parsed[expr]
	s.parsedMu.RUnlock()
	if ok {
		return sched, nil
	}

	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	s.parsedMu.Lock()
	s.parsed[expr] = sched
	s.parsedMu.Unlock()
	return sched, nil
}
