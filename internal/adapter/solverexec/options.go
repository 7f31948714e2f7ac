package solverexec

import "time"

// Options carries the deployment settings every adapter shares.
type Options struct {
	// Binary overrides the adapter's default program name or path.
	Binary         string
	StagingRoot    string
	RemoveStageDir bool
	Grace          time.Duration
}

// Apply copies the options onto r, keeping r.Binary when no override is set.
func (o Options) Apply(r *Runner) *Runner {
	if o.Binary != "" {
		r.Binary = o.Binary
	}
	r.StagingRoot = o.StagingRoot
	r.RemoveStageDir = o.RemoveStageDir
	r.Grace = o.Grace
	return r
}
