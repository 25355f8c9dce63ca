package job

import (
	"errors"
	"sync"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
)

var testRegion = geom.NewRegion(cube.Pos{0, 0, 0}, cube.Pos{4, 4, 4})

// counter produces n units that append their index to log.
func counter(n int, log *[]int) Work {
	units := make([]Unit, n)
	for i := range units {
		i := i
		units[i] = func() error {
			*log = append(*log, i)
			return nil
		}
	}
	return Units(units...)
}

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *recordingListener) OnJobStarted(*Job)  { l.add("started") }
func (l *recordingListener) OnJobStep(*Job)     { l.add("step") }
func (l *recordingListener) OnJobProgress(*Job) { l.add("progress") }
func (l *recordingListener) OnJobFinished(*Job) { l.add("finished") }

func TestPassAdvanceCount(t *testing.T) {
	tests := []struct {
		units  int
		budget int
		want   int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{8, 4, 2},
		{9, 4, 3},
		{125, 10, 13},
		{1000, 1, 1000},
	}
	for _, tt := range tests {
		s := NewScheduler(Config{UnitsPerTick: tt.budget})
		j, err := s.StartJob("op", 1, testRegion)
		if err != nil {
			t.Fatalf("StartJob() error = %v", err)
		}
		var log []int
		p := s.Perform(j, counter(tt.units, &log), false)

		advances := 0
		for !p.Done() {
			advances++
			if _, err := p.Advance(); err != nil {
				t.Fatalf("Advance() error = %v", err)
			}
		}
		if advances != tt.want {
			t.Errorf("K=%d B=%d: advances = %d, want %d", tt.units, tt.budget, advances, tt.want)
		}
		if len(log) != tt.units {
			t.Errorf("K=%d B=%d: consumed %d units", tt.units, tt.budget, len(log))
		}
		if j.Consumed() != tt.units {
			t.Errorf("Consumed() = %d, want %d", j.Consumed(), tt.units)
		}
	}
}

func TestPassBudgetPerAdvance(t *testing.T) {
	s := NewScheduler(Config{UnitsPerTick: 3})
	j, _ := s.StartJob("op", 1, testRegion)
	var log []int
	p := s.Perform(j, counter(7, &log), false)

	wantAfter := []int{3, 6, 7}
	for i, want := range wantAfter {
		_, _ = p.Advance()
		if len(log) != want {
			t.Errorf("after advance %d consumed %d, want %d", i+1, len(log), want)
		}
	}
	for i, v := range log {
		if v != i {
			t.Fatalf("consumption order = %v", log)
		}
	}
}

func TestPassStopsOnFailure(t *testing.T) {
	s := NewScheduler(Config{UnitsPerTick: 2})
	j, _ := s.StartJob("op", 1, testRegion)
	s.NextStep(j, "Pasting blocks...")

	boom := errors.New("boom")
	ran := 0
	w := Units(
		func() error { ran++; return nil },
		func() error { ran++; return nil },
		func() error { ran++; return boom },
		func() error { ran++; return nil },
		func() error { ran++; return nil },
	)
	p := s.Perform(j, w, false)

	if done, err := p.Advance(); done || err != nil {
		t.Fatalf("first Advance() = %v, %v", done, err)
	}
	done, err := p.Advance()
	if !done {
		t.Fatal("Advance() after failure should report done")
	}
	if !errors.Is(err, ErrJobFailure) || !errors.Is(err, boom) {
		t.Errorf("Advance() error = %v, want ErrJobFailure wrapping boom", err)
	}
	var jerr *Error
	if !errors.As(err, &jerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if jerr.JobID != j.ID() || jerr.Step != 1 || jerr.Label != "Pasting blocks..." {
		t.Errorf("Error = %+v", jerr)
	}
	if j.State() != StateFailed {
		t.Errorf("State() = %v, want failed", j.State())
	}

	_, _ = p.Advance()
	_ = p.Drain()
	if ran != 3 {
		t.Errorf("units run = %d, want 3", ran)
	}

	// A failed job refuses further passes.
	var log []int
	if err := s.Perform(j, counter(2, &log), false).Drain(); !errors.Is(err, boom) {
		t.Errorf("new pass on failed job error = %v", err)
	}
	if len(log) != 0 {
		t.Errorf("failed job consumed %d units", len(log))
	}
}

func TestJobLifecycle(t *testing.T) {
	l := &recordingListener{}
	s := NewScheduler(DefaultConfig(), WithListener(l))
	j, _ := s.StartJob("alice", 2, testRegion)

	if j.State() != StatePending {
		t.Errorf("State() = %v, want pending", j.State())
	}
	if got, ok := s.Get(j.ID()); !ok || got != j {
		t.Error("Get() did not return the started job")
	}

	s.NextStep(j, "Copying blocks...")
	if j.State() != StateStepping || j.Step() != 1 || j.Label() != "Copying blocks..." {
		t.Errorf("after NextStep: %s", j)
	}

	var log []int
	p := s.Perform(j, counter(3, &log), false)
	_, _ = p.Advance()
	if j.State() != StateRunning {
		t.Errorf("State() = %v, want running", j.State())
	}
	if got := j.Progress(); got != 0.5 {
		t.Errorf("Progress() = %v, want 0.5", got)
	}

	s.FinishJob(j)
	if j.State() != StateCompleted {
		t.Errorf("State() = %v, want completed", j.State())
	}
	if j.Progress() != 1 {
		t.Errorf("Progress() = %v, want 1", j.Progress())
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	s.FinishJob(j)

	want := []string{"started", "step", "progress", "finished"}
	if len(l.events) != len(want) {
		t.Fatalf("events = %v, want %v", l.events, want)
	}
	for i := range want {
		if l.events[i] != want[i] {
			t.Errorf("events = %v, want %v", l.events, want)
		}
	}
}

func TestFinishFailedJobStaysFailed(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	j, _ := s.StartJob("op", 1, testRegion)
	_ = s.Perform(j, Units(func() error { return errors.New("x") }), false).Drain()
	s.FinishJob(j)
	if j.State() != StateFailed {
		t.Errorf("State() = %v, want failed", j.State())
	}
}

func TestMaxJobs(t *testing.T) {
	s := NewScheduler(Config{UnitsPerTick: 1, MaxJobs: 2})
	a, _ := s.StartJob("a", 1, testRegion)
	if _, err := s.StartJob("b", 1, testRegion); err != nil {
		t.Fatalf("StartJob() error = %v", err)
	}
	if _, err := s.StartJob("c", 1, testRegion); !errors.Is(err, ErrTooManyJobs) {
		t.Errorf("StartJob() error = %v, want ErrTooManyJobs", err)
	}
	s.FinishJob(a)
	if _, err := s.StartJob("c", 1, testRegion); err != nil {
		t.Errorf("StartJob() after finish error = %v", err)
	}
}

func TestJobsFor(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	a1, _ := s.StartJob("a", 1, testRegion)
	_, _ = s.StartJob("b", 1, testRegion)
	a2, _ := s.StartJob("a", 1, testRegion)

	got := s.JobsFor("a")
	if len(got) != 2 || got[0] != a1 || got[1] != a2 {
		t.Errorf("JobsFor(a) = %v", got)
	}
	if len(s.Jobs()) != 3 {
		t.Errorf("len(Jobs()) = %d, want 3", len(s.Jobs()))
	}
}

func TestSetUnitsPerTick(t *testing.T) {
	s := NewScheduler(Config{UnitsPerTick: 1})
	j, _ := s.StartJob("op", 1, testRegion)
	var log []int
	p := s.Perform(j, counter(10, &log), false)
	_, _ = p.Advance()
	s.SetUnitsPerTick(5)
	_, _ = p.Advance()
	if len(log) != 6 {
		t.Errorf("consumed %d, want 6", len(log))
	}
	s.SetUnitsPerTick(0)
	if s.UnitsPerTick() != DefaultUnitsPerTick {
		t.Errorf("UnitsPerTick() = %d, want default", s.UnitsPerTick())
	}
}

func TestEachAndConcat(t *testing.T) {
	c := &sliceCursor{pos: []cube.Pos{{1, 0, 0}, {2, 0, 0}}}
	var seen []cube.Pos
	each := Each(c, func(p cube.Pos) error {
		seen = append(seen, p)
		return nil
	})
	var log []int
	w := Concat(each, counter(2, &log))
	if _, ok := w.(Sized); ok {
		t.Error("Concat of unsized work should not be Sized")
	}

	s := NewScheduler(DefaultConfig())
	j, _ := s.StartJob("op", 1, testRegion)
	if err := s.Perform(j, w, false).Drain(); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(seen) != 2 || len(log) != 2 || j.Consumed() != 4 {
		t.Errorf("seen %v log %v consumed %d", seen, log, j.Consumed())
	}

	sized := Concat(Units(nil, nil), Units(nil))
	if sz, ok := sized.(Sized); !ok || sz.Len() != 3 {
		t.Error("Concat of sized work should report total length")
	}
}

type sliceCursor struct {
	pos []cube.Pos
}

func (c *sliceCursor) Next() (cube.Pos, bool) {
	if len(c.pos) == 0 {
		return cube.Pos{}, false
	}
	p := c.pos[0]
	c.pos = c.pos[1:]
	return p, true
}
