package app

import (
	"github.com/dshills/voxedit/internal/engine/job"
)

// jobLogger reports job lifecycle events to the application log.
type jobLogger struct {
	log *Logger
}

func newJobLogger(l *Logger) *jobLogger {
	return &jobLogger{log: l.WithComponent("jobs")}
}

func (l *jobLogger) with(j *job.Job) *Logger {
	return l.log.WithFields(map[string]any{"job": j.ID(), "owner": j.Owner()})
}

func (l *jobLogger) OnJobStarted(j *job.Job) {
	l.with(j).Debug("started: %d steps over %s", j.Steps(), j.Region())
}

func (l *jobLogger) OnJobStep(j *job.Job) {
	if j.Label() == "" {
		return
	}
	l.with(j).Debug("step %d/%d: %s", j.Step(), j.Steps(), j.Label())
}

func (l *jobLogger) OnJobProgress(*job.Job) {}

func (l *jobLogger) OnJobFinished(j *job.Job) {
	if err := j.Err(); err != nil {
		l.with(j).Warn("failed after %s: %v", j.Elapsed(), err)
		return
	}
	l.with(j).Debug("finished in %s, %d units", j.Elapsed(), j.Consumed())
}
