package job

// Stage is one step of a Program.
type Stage struct {
	// Label names the step. An empty label continues the current step.
	Label string

	// Granular requests per-unit progress notifications.
	Granular bool

	// Begin produces the stage's work. It runs on the tick that starts the
	// stage. A nil Begin yields no work.
	Begin func() (Work, error)

	// End runs after the work is exhausted, on the same tick.
	End func() error
}

// program is a registered sequence of stages and its resume point.
type program struct {
	job    *Job
	stages []Stage
	next   int
	pass   *Pass
	done   func(error)
}

// Run registers a program for j. Each Tick resumes it once: a stage is
// begun when none is in flight, then its pass is advanced. When the last
// stage ends, or any stage fails, done is invoked exactly once and the
// program is dropped. done is responsible for calling FinishJob.
func (s *Scheduler) Run(j *Job, stages []Stage, done func(error)) error {
	if j.State().Terminal() {
		return ErrJobFinished
	}
	if _, ok := s.Get(j.ID()); !ok {
		return ErrUnknownJob
	}
	s.mu.Lock()
	s.programs = append(s.programs, &program{job: j, stages: stages, done: done})
	s.mu.Unlock()
	return nil
}

// Tick resumes every registered program once, in registration order.
// Programs registered during the tick first run on the next one.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	progs := make([]*program, len(s.programs))
	copy(progs, s.programs)
	s.mu.Unlock()

	for _, p := range progs {
		if finished, err := s.resume(p); finished {
			s.drop(p)
			if p.done != nil {
				p.done(err)
			}
		}
	}
}

// Active returns the number of registered programs.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.programs)
}

// Drain ticks until no program remains registered.
func (s *Scheduler) Drain() {
	for s.Active() > 0 {
		s.Tick()
	}
}

func (s *Scheduler) resume(p *program) (bool, error) {
	if p.pass == nil {
		if p.next >= len(p.stages) {
			return true, nil
		}
		st := p.stages[p.next]
		if st.Label != "" {
			s.NextStep(p.job, st.Label)
		}
		w := Units()
		if st.Begin != nil {
			var err error
			if w, err = st.Begin(); err != nil {
				return true, s.fail(p.job, err)
			}
			if w == nil {
				w = Units()
			}
		}
		p.pass = s.Perform(p.job, w, st.Granular)
	}

	if !p.pass.Done() {
		done, err := p.pass.Advance()
		if err != nil {
			return true, err
		}
		if !done {
			return false, nil
		}
	}

	st := p.stages[p.next]
	p.pass = nil
	p.next++
	if st.End != nil {
		if err := st.End(); err != nil {
			return true, s.fail(p.job, err)
		}
	}
	return p.next >= len(p.stages), nil
}

func (s *Scheduler) drop(p *program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.programs {
		if o == p {
			s.programs = append(s.programs[:i], s.programs[i+1:]...)
			return
		}
	}
}
