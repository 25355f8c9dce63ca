package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/voxedit/internal/engine/geom"
)

// DefaultUnitsPerTick is the default per-pass budget.
const DefaultUnitsPerTick = 2048

// Config configures a Scheduler.
type Config struct {
	// UnitsPerTick is the maximum number of units one pass consumes per
	// advance.
	UnitsPerTick int

	// MaxJobs is the maximum number of registered jobs (0 = unlimited).
	MaxJobs int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UnitsPerTick: DefaultUnitsPerTick,
	}
}

// Listener receives job events. Callbacks run on the tick goroutine and
// must not call back into the Scheduler.
type Listener interface {
	// OnJobStarted is called when a job is registered.
	OnJobStarted(j *Job)

	// OnJobStep is called when a job moves to a new step.
	OnJobStep(j *Job)

	// OnJobProgress is called after units are consumed.
	OnJobProgress(j *Job)

	// OnJobFinished is called when a job completes or fails.
	OnJobFinished(j *Job)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithListener adds a listener.
func WithListener(l Listener) Option {
	return func(s *Scheduler) {
		s.listeners = append(s.listeners, l)
	}
}

// WithTracer sets the tracer used for job spans. The global tracer is used
// by default.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// Scheduler is the registry of active jobs. It has no hidden global state:
// every component that starts jobs is handed the same Scheduler.
//
// Jobs are advanced cooperatively. Either a caller drives a Pass directly,
// or it registers a Program with Run and the owner of the tick loop calls
// Tick once per simulation tick.
type Scheduler struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	order    []*Job
	programs []*program

	unitsPerTick atomic.Int64
	maxJobs      int

	listeners []Listener
	tracer    trace.Tracer
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:    make(map[string]*Job),
		maxJobs: cfg.MaxJobs,
		tracer:  otel.Tracer("voxedit/job"),
	}
	s.SetUnitsPerTick(cfg.UnitsPerTick)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUnitsPerTick changes the per-pass budget. Passes pick up the new value
// on their next advance. Non-positive values restore the default.
func (s *Scheduler) SetUnitsPerTick(n int) {
	if n <= 0 {
		n = DefaultUnitsPerTick
	}
	s.unitsPerTick.Store(int64(n))
}

// UnitsPerTick returns the per-pass budget.
func (s *Scheduler) UnitsPerTick() int {
	return int(s.unitsPerTick.Load())
}

// StartJob registers a job in the pending state.
func (s *Scheduler) StartJob(owner string, steps int, region geom.Region) (*Job, error) {
	if steps < 1 {
		steps = 1
	}

	s.mu.Lock()
	if s.maxJobs > 0 && len(s.jobs) >= s.maxJobs {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyJobs, s.maxJobs)
	}

	_, span := s.tracer.Start(context.Background(), "voxedit.job",
		trace.WithAttributes(
			attribute.String("owner", owner),
			attribute.Int("steps", steps),
			attribute.Int("volume", region.Volume()),
		),
	)

	j := &Job{
		id:      uuid.New().String(),
		owner:   owner,
		steps:   steps,
		region:  region,
		state:   StatePending,
		started: time.Now(),
		span:    span,
	}
	s.jobs[j.id] = j
	s.order = append(s.order, j)
	jobsActive.Set(float64(len(s.jobs)))
	s.mu.Unlock()

	jobsStartedTotal.Inc()
	s.notify(j, Listener.OnJobStarted)
	return j, nil
}

// NextStep moves j to its next step and resets step progress.
func (s *Scheduler) NextStep(j *Job, label string) {
	j.mu.Lock()
	if j.finished || j.state == StateFailed {
		j.mu.Unlock()
		return
	}
	j.step++
	j.label = label
	j.state = StateStepping
	j.stepDone = 0
	j.stepTotal = 0
	step := j.step
	j.mu.Unlock()

	j.span.AddEvent("step", trace.WithAttributes(
		attribute.Int("step", step),
		attribute.String("label", label),
	))
	s.notify(j, Listener.OnJobStep)
}

// Perform returns a pass that consumes w on behalf of j. Granular passes
// notify listeners after every unit rather than once per advance. A pass
// over empty work is done without any advance.
func (s *Scheduler) Perform(j *Job, w Work, granular bool) *Pass {
	p := &Pass{s: s, j: j, w: w, granular: granular}
	if sz, ok := w.(Sized); ok {
		j.mu.Lock()
		j.stepDone = 0
		j.stepTotal = sz.Len()
		j.mu.Unlock()
	}
	p.done = !p.peek()
	return p
}

// FinishJob moves j to its terminal state and deregisters it. A job that
// failed stays failed. Finishing twice is a no-op.
func (s *Scheduler) FinishJob(j *Job) {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	j.finished = true
	if j.state != StateFailed {
		j.state = StateCompleted
	}
	j.ended = time.Now()
	state, err, elapsed := j.state, j.err, j.ended.Sub(j.started)
	j.mu.Unlock()

	s.mu.Lock()
	delete(s.jobs, j.id)
	for i, o := range s.order {
		if o == j {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	jobsActive.Set(float64(len(s.jobs)))
	s.mu.Unlock()

	if err != nil {
		j.span.RecordError(err)
		j.span.SetStatus(codes.Error, err.Error())
	}
	j.span.SetAttributes(attribute.Int("units", j.Consumed()))
	j.span.End()

	jobsFinishedTotal.WithLabelValues(string(state)).Inc()
	jobDuration.Observe(elapsed.Seconds())
	s.notify(j, Listener.OnJobFinished)
}

// fail marks j failed with cause and returns the job error.
func (s *Scheduler) fail(j *Job, cause error) *Error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e, ok := j.err.(*Error); ok {
		return e
	}
	e := &Error{JobID: j.id, Step: j.step, Label: j.label, Err: cause}
	j.state = StateFailed
	j.err = e
	return e
}

// Get returns a registered job by ID.
func (s *Scheduler) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Jobs returns the registered jobs in start order.
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, len(s.order))
	copy(out, s.order)
	return out
}

// JobsFor returns the registered jobs of one owner in start order.
func (s *Scheduler) JobsFor(owner string) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Job
	for _, j := range s.order {
		if j.owner == owner {
			out = append(out, j)
		}
	}
	return out
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) notify(j *Job, fn func(Listener, *Job)) {
	for _, l := range s.listeners {
		fn(l, j)
	}
}

// Pass consumes one Work on behalf of a job, a bounded number of units at a
// time.
type Pass struct {
	s        *Scheduler
	j        *Job
	w        Work
	granular bool

	// lookahead unit fetched to detect exhaustion
	pending Unit
	done    bool
	err     error
}

// Job returns the job the pass runs for.
func (p *Pass) Job() *Job { return p.j }

// Done reports whether the work is exhausted or has failed.
func (p *Pass) Done() bool { return p.done }

// Advance consumes at most UnitsPerTick units in order. It reports done once
// the work is exhausted or a unit failed. A failure marks the job failed and
// is returned as a *Error; no further units are consumed afterwards.
func (p *Pass) Advance() (bool, error) {
	if p.done {
		return true, p.err
	}
	if p.j.State() == StateFailed {
		p.done = true
		p.err = p.j.Err()
		return true, p.err
	}

	p.j.mu.Lock()
	p.j.state = StateRunning
	p.j.mu.Unlock()

	budget := p.s.UnitsPerTick()
	ran := 0
	for ran < budget {
		u, ok := p.take()
		if !ok {
			break
		}
		err := u()
		ran++
		p.record(1)
		if err != nil {
			p.done = true
			p.err = p.s.fail(p.j, err)
			p.report(ran)
			return true, p.err
		}
		if p.granular {
			p.s.notify(p.j, Listener.OnJobProgress)
		}
	}
	p.report(ran)

	if !p.peek() {
		p.done = true
	}
	return p.done, nil
}

// Drain advances the pass until it is done.
func (p *Pass) Drain() error {
	for !p.done {
		if _, err := p.Advance(); err != nil {
			return err
		}
	}
	return p.err
}

func (p *Pass) take() (Unit, bool) {
	if p.pending != nil {
		u := p.pending
		p.pending = nil
		return u, true
	}
	return p.w.Next()
}

func (p *Pass) peek() bool {
	if p.pending != nil {
		return true
	}
	u, ok := p.w.Next()
	if ok {
		p.pending = u
	}
	return ok
}

func (p *Pass) record(n int) {
	p.j.mu.Lock()
	p.j.consumed += n
	p.j.stepDone += n
	p.j.mu.Unlock()
	jobUnitsTotal.Add(float64(n))
}

func (p *Pass) report(ran int) {
	if ran > 0 && !p.granular {
		p.s.notify(p.j, Listener.OnJobProgress)
	}
}
