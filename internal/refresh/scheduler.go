// Package refresh runs a job immediately and then periodically until stopped.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/logging"
)

// Job is one refresh round. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// State is the lifecycle state of a Scheduler.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateRefreshing:
		return "refreshing"
	default:
		return "idle"
	}
}

// Scheduler drives a Job on a fixed interval. A round that is still running
// when the next tick fires causes that tick to be skipped, so rounds never
// overlap. A Scheduler is single use: once stopped it cannot be restarted.
type Scheduler struct {
	cron     *cron.Cron
	job      Job
	interval time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State
	entry   cron.EntryID
	started bool
	stopped bool
}

// New creates a scheduler for job. Intervals below one second are raised to
// one second, the resolution of the underlying cron schedule.
func New(job Job, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval < time.Second {
		interval = time.Second
	}
	log = log.With().Str("component", "refresh_scheduler").Logger()
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithLogger(logging.CronLogger{Log: log})),
		job:      job,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the job once right away and schedules it every interval after.
// Calling Start on a started or stopped scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.state = StateScheduled

	round := cron.NewChain(cron.SkipIfStillRunning(logging.CronLogger{Log: s.log})).Then(cron.FuncJob(s.run))
	s.entry = s.cron.Schedule(cron.Every(s.interval), round)
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		round.Run()
	}()

	s.log.Debug().Dur("interval", s.interval).Msg("refresh scheduler started")
}

// Stop cancels the running round, if any, and waits for it to return. No
// round starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.cancel()
	if started {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.log.Debug().Msg("refresh scheduler stopped")
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns when the next scheduled round fires, or the zero time when
// the scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) run() {
	if !s.transition(StateScheduled, StateRefreshing) {
		return
	}
	defer s.transition(StateRefreshing, StateScheduled)

	if err := s.job(s.ctx); err != nil && s.ctx.Err() == nil {
		s.log.Error().Err(err).Msg("refresh round failed")
	}
}

// transition moves from one state to another unless the scheduler was stopped.
func (s *Scheduler) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.state != from {
		return false
	}
	s.state = to
	return true
}
