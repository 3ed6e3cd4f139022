// Package scheduler runs the training and baseline jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/spend-intel/internal/logging"

	"github.com/robfig/cron/v3"
)

// JobFunc is one scheduled batch run.
type JobFunc func(ctx context.Context) error

// Entry describes a registered job and its next activation.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

type job struct {
	name string
	spec string
	id   cron.EntryID
	run  JobFunc
}

// Scheduler wraps a cron runner. A job that is still running when its next
// activation fires is skipped, and a panicking job is logged and recovered.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   logging.Logger

	mu   sync.Mutex
	ctx  context.Context
	jobs []*job
}

// New creates a Scheduler in the named time zone. An unknown zone falls back
// to UTC with a warning.
func New(timezone string, logger logging.Logger) *Scheduler {
	logger = logging.OrDefault(logger)

	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			logger.WithError(err).Warn("Invalid timezone, falling back to UTC",
				logging.F("timezone", timezone))
		} else {
			loc = l
		}
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		location: loc,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Location returns the time zone schedules are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Add registers run under name with a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, run JobFunc) error {
	j := &job{name: name, spec: spec, run: run}
	id, err := s.cron.AddFunc(spec, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	j.id = id

	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()

	s.logger.Info("Job scheduled",
		logging.F(logging.FieldJob, name),
		logging.F("schedule", spec))
	return nil
}

// Entries lists the registered jobs in registration order.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.jobs))
	for _, j := range s.jobs {
		entries = append(entries, Entry{Name: j.name, Spec: j.spec, Next: s.cron.Entry(j.id).Next})
	}
	return entries
}

// RunNow executes the named job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var found *job
	for _, j := range s.jobs {
		if j.name == name {
			found = j
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return fmt.Errorf("unknown job %q", name)
	}
	return found.run(ctx)
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", logging.F(logging.FieldCount, len(s.Entries())))

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) execute(j *job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	logger := s.logger.WithField(logging.FieldJob, j.name)
	logger.Info("Scheduled job started")

	if err := j.run(ctx); err != nil {
		logger.WithError(err).Error("Scheduled job failed",
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		return
	}
	logger.Info("Scheduled job finished",
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).Error("cron: "+msg, kvFields(keysAndValues)...)
}

func kvFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logging.F(key, keysAndValues[i+1]))
	}
	return fields
}
