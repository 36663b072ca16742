// Package scheduler runs a job on wall-clock interval boundaries computed in a
// fixed timezone. A Scheduler owns exactly one background goroutine; jobs run
// on it sequentially, so two invocations never overlap.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultPollInterval is how often the loop checks whether a boundary has passed.
const DefaultPollInterval = 100 * time.Millisecond

// ErrNotIdle is returned by Start on a scheduler that was already started.
var ErrNotIdle = errors.New("scheduler: already started")

// State is the lifecycle position of a Scheduler.
type State int

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Job is the work performed on every trigger boundary. A job reports its own
// failures; a returned error is counted and logged at debug level, and it
// never ends the schedule.
type Job func(ctx context.Context) error

// Options configure a Scheduler.
type Options struct {
	Name         string
	Interval     time.Duration
	Location     *time.Location // used only to align boundaries; defaults to UTC
	PollInterval time.Duration  // defaults to DefaultPollInterval
	Clock        clockwork.Clock
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Scheduler triggers a Job at every interval boundary.
type Scheduler struct {
	name     string
	interval time.Duration
	loc      *time.Location
	poll     time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu    sync.Mutex
	state State
}

// New validates opts and returns an Idle scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("scheduler %q: interval must be positive, got %s", opts.Name, opts.Interval)
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollInterval < 0 || opts.PollInterval > opts.Interval {
		return nil, fmt.Errorf("scheduler %q: poll interval %s must be positive and not exceed interval %s",
			opts.Name, opts.PollInterval, opts.Interval)
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("scheduler %q: metrics are required", opts.Name)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Scheduler{
		name:     opts.Name,
		interval: opts.Interval,
		loc:      opts.Location,
		poll:     opts.PollInterval,
		clock:    opts.Clock,
		logger:   opts.Logger.With("schedule", opts.Name),
		metrics:  opts.Metrics,
		state:    Idle,
	}, nil
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start moves the scheduler to Running and launches its background loop. The
// returned Handle is the only way to stop it. A scheduler can be started once.
func (s *Scheduler) Start(job Job) (*Handle, error) {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return nil, ErrNotIdle
	}
	s.state = Running
	s.mu.Unlock()

	h := &Handle{
		s:    s,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// The ticker exists before Start returns so fake clocks can be advanced
	// immediately after.
	ticker := s.clock.NewTicker(s.poll)
	next := nextBoundary(s.clock.Now(), s.interval, s.loc)

	s.logger.Info("scheduler started", "interval", s.interval, "timezone", s.loc.String(), "next_run", next)
	go s.run(job, ticker, next, h)
	return h, nil
}

func (s *Scheduler) run(job Job, ticker clockwork.Ticker, next time.Time, h *Handle) {
	defer close(h.done)
	defer ticker.Stop()

	running := s.metrics.SchedulerRunning.WithLabelValues(s.name)
	running.Set(1)
	defer running.Set(0)

	for {
		// Stop wins over a tick that is ready at the same time.
		select {
		case <-h.stop:
			return
		default:
		}

		select {
		case <-h.stop:
			return
		case <-ticker.Chan():
		}

		if s.clock.Now().Before(next) {
			continue
		}

		s.tick(job, next)
		next = s.advance(next)
	}
}

// advance returns the first boundary after next that has not already passed,
// counting the boundaries an overrunning job skipped.
func (s *Scheduler) advance(next time.Time) time.Time {
	now := s.clock.Now()
	following := nextBoundary(next, s.interval, s.loc)

	skipped := 0
	for now.After(following) {
		skipped++
		following = nextBoundary(following, s.interval, s.loc)
	}
	if skipped > 0 {
		s.metrics.SkippedTicks.WithLabelValues(s.name).Add(float64(skipped))
		s.logger.Warn("job overran trigger boundaries", "skipped", skipped, "next_run", following)
	}
	return following
}

// tick runs one job invocation. Panics are recovered so a broken job cannot
// end the schedule.
func (s *Scheduler) tick(job Job, boundary time.Time) {
	start := s.clock.Now()
	s.metrics.Ticks.WithLabelValues(s.name).Inc()

	defer func() {
		s.metrics.TickDuration.WithLabelValues(s.name).Observe(s.clock.Since(start).Seconds())
		if r := recover(); r != nil {
			s.metrics.TickErrors.WithLabelValues(s.name).Inc()
			s.logger.Error("job panicked", "boundary", boundary, "panic", r)
		}
	}()

	if err := job(context.Background()); err != nil {
		s.metrics.TickErrors.WithLabelValues(s.name).Inc()
		s.logger.Debug("job failed", "boundary", boundary, "error", err)
		return
	}
	s.logger.Debug("job completed", "boundary", boundary, "duration", s.clock.Since(start))
}

// Handle controls a started Scheduler.
type Handle struct {
	s    *Scheduler
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// Stop signals the loop to exit after any in-flight job and blocks until it
// has. An in-flight job is not cancelled. Stop is safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.s.setState(Stopping)
		close(h.stop)
	})
	<-h.done
	h.s.setState(Stopped)
	h.s.logger.Info("scheduler stopped")
}

// Done is closed once the background loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// nextBoundary returns the first trigger instant strictly after t. Boundaries
// are multiples of interval counted from local midnight in loc; sub-day
// intervals restart at each midnight. Whole-day intervals land on local
// midnight even across daylight saving changes.
func nextBoundary(t time.Time, interval time.Duration, loc *time.Location) time.Time {
	const day = 24 * time.Hour

	local := t.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	if interval >= day && interval%day == 0 {
		return time.Date(y, m, d+int(interval/day), 0, 0, 0, 0, loc)
	}

	n := local.Sub(midnight)/interval + 1
	b := midnight.Add(n * interval)

	if interval < day {
		if tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, loc); b.After(tomorrow) {
			return tomorrow
		}
	}
	return b
}
