// Package job spreads bulk world mutations across simulation ticks.
//
// An operation declares its work as a sequence of Units produced lazily by a
// Work. The Scheduler tracks a Job per operation (owner, step, progress) and
// a Pass consumes the Work at most UnitsPerTick units per advance, so a
// mutation of K units completes in ceil(K/UnitsPerTick) advances and the host
// loop never stalls.
//
// Multi-step operations are expressed as a Program: an ordered list of
// Stages, each producing Work when it begins. Programs are registered with
// Run and resumed once per Tick:
//
//	j, _ := sched.StartJob(owner, 2, region)
//	sched.Run(j, []job.Stage{
//	    {Label: "Copying blocks...", Begin: copyWork},
//	    {Label: "Pasting blocks...", Begin: pasteWork},
//	}, func(err error) {
//	    sched.FinishJob(j)
//	})
//
// A failing unit marks the job failed and surfaces as a *Error wrapping
// ErrJobFailure. Units of one job never overlap.
package job
