// Package scheduler triggers background jobs (dataset refresh, daily
// digest) on cron expressions or fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"runlens/pkg/logx"
)

const DefaultTimeout = 2 * time.Minute

type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "America/Bogota"
}

// JobInfo is a point-in-time view of one schedule.
type JobInfo struct {
	Name     string
	Spec     string
	Next     time.Time
	Prev     time.Time
	LastRun  time.Time
	LastTook time.Duration
	LastErr  string
	Runs     uint64
}

type Snapshot struct {
	Enabled  bool
	Running  bool
	Timezone string
	Jobs     []JobInfo
}

type jobDef struct {
	name    string
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) error
	entryID cron.EntryID

	// guarded by Service.smu
	lastRun  time.Time
	lastTook time.Duration
	lastErr  string
	runs     uint64
}

type Service struct {
	mu     sync.Mutex
	log    logx.Logger
	cfg    Config
	loc    *time.Location
	parser cron.Parser
	c      *cron.Cron
	ctx    context.Context
	defs   map[string]*jobDef

	smu sync.Mutex // run state
}

func New(cfg Config, log logx.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log.Comp("scheduler"),
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		ctx:    context.Background(),
		defs:   map[string]*jobDef{},
	}
}

// Validate checks that schedule parses, without registering anything.
func (s *Service) Validate(schedule string) error {
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}
	if _, err := s.parser.Parse(ps.Spec()); err != nil {
		return fmt.Errorf("invalid cron %q: %w", ps.Spec(), err)
	}
	return nil
}

// Add registers (or replaces, by name) a job. A zero timeout uses
// DefaultTimeout.
func (s *Service) Add(name, schedule string, timeout time.Duration, run func(ctx context.Context) error) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name required")
	}
	if run == nil {
		return errors.New("job required")
	}
	if err := s.Validate(schedule); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	ps, _ := ParseSchedule(schedule)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
	d := &jobDef{name: name, spec: ps.Spec(), timeout: timeout, run: run}
	s.defs[name] = d
	if s.c != nil {
		if err := s.registerLocked(d); err != nil {
			return err
		}
	}
	s.log.Info("schedule registered", logx.String("name", name), logx.String("spec", d.spec), logx.Duration("timeout", timeout))
	return nil
}

// Remove drops a job by name.
func (s *Service) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

func (s *Service) removeLocked(name string) bool {
	d, ok := s.defs[name]
	if !ok {
		return false
	}
	if s.c != nil && d.entryID != 0 {
		s.c.Remove(d.entryID)
	}
	delete(s.defs, name)
	return true
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start begins triggering when enabled. Jobs run with contexts derived
// from ctx.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	if !s.cfg.Enabled {
		s.log.Info("disabled")
		return
	}
	s.startLocked()
}

func (s *Service) startLocked() {
	if s.c != nil {
		return
	}
	s.loc = s.loadLocationLocked()
	cl := cronLogger{s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	for _, d := range s.defs {
		if err := s.registerLocked(d); err != nil {
			s.log.Error("schedule register failed", logx.String("name", d.name), logx.String("spec", d.spec), logx.Err(err))
		}
	}
	s.c.Start()
	s.log.Info("service started", logx.String("tz", s.loc.String()), logx.Int("schedules", len(s.defs)))
}

// Stop halts triggering and waits for running jobs until ctx expires.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	for _, d := range s.defs {
		d.entryID = 0
	}
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("service stopped")
}

// Apply updates the config, restarting cron when the timezone or the
// enabled flag changed.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	running := s.c != nil
	s.mu.Unlock()

	switch {
	case !cfg.Enabled && running:
		s.Stop(context.Background())
	case cfg.Enabled && !running:
		s.mu.Lock()
		s.startLocked()
		s.mu.Unlock()
	case running && strings.TrimSpace(old.Timezone) != strings.TrimSpace(cfg.Timezone):
		s.Stop(context.Background())
		s.mu.Lock()
		s.startLocked()
		s.mu.Unlock()
	}
}

func (s *Service) registerLocked(d *jobDef) error {
	job := cron.FuncJob(func() { s.execute(d) })
	if strings.HasPrefix(d.spec, "@every ") {
		if every, err := time.ParseDuration(strings.TrimPrefix(d.spec, "@every ")); err == nil {
			sched, jitter := intervalWithSpread(every, time.Now().In(s.loc), d.name)
			d.entryID = s.c.Schedule(sched, job)
			s.log.Debug("interval scheduled", logx.String("name", d.name), logx.Duration("spread", jitter))
			return nil
		}
	}
	id, err := s.c.AddJob(d.spec, job)
	if err != nil {
		return err
	}
	d.entryID = id
	return nil
}

// execute runs one job with its timeout and records the outcome.
func (s *Service) execute(d *jobDef) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.run(ctx)
	took := time.Since(start)

	s.smu.Lock()
	d.runs++
	d.lastRun = start
	d.lastTook = took
	d.lastErr = ""
	if err != nil {
		d.lastErr = err.Error()
	}
	s.smu.Unlock()

	if err != nil {
		s.log.Warn("job failed", logx.String("name", d.name), logx.Duration("took", took), logx.Err(err))
		return
	}
	s.log.Debug("job done", logx.String("name", d.name), logx.Duration("took", took))
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	d, ok := s.defs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.execute(d)
	s.smu.Lock()
	defer s.smu.Unlock()
	if d.lastErr != "" {
		return errors.New(d.lastErr)
	}
	return nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	tz := s.cfg.Timezone
	if s.loc != nil {
		tz = s.loc.String()
	}
	out := Snapshot{Enabled: s.cfg.Enabled, Running: s.c != nil, Timezone: tz}

	s.smu.Lock()
	defer s.smu.Unlock()
	for _, d := range s.defs {
		it := JobInfo{Name: d.name, Spec: d.spec, LastRun: d.lastRun, LastTook: d.lastTook, LastErr: d.lastErr, Runs: d.runs}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			it.Next, it.Prev = e.Next, e.Prev
		}
		out.Jobs = append(out.Jobs, it)
	}
	sort.Slice(out.Jobs, func(i, j int) bool { return out.Jobs[i].Name < out.Jobs[j].Name })
	return out
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// cronLogger adapts logx to cron.Logger for the Recover and
// SkipIfStillRunning wrappers.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
