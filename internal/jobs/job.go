package jobs

import "context"

// Job is a unit of background work.
type Job interface {
	// Name identifies the job in logs
	Name() string

	// Run executes the job. The context is cancelled when the pool stops.
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

// Name implements Job
func (j JobFunc) Name() string { return j.JobName }

// Run implements Job
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }
