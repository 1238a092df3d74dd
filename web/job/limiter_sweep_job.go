// Package job holds the periodic maintenance tasks scheduled by the web server.
package job

import (
	"coupon-ui/logger"
	"coupon-ui/web/limiter"
)

// LimiterSweepJob prunes elapsed admission-control entries so churning keys
// cannot grow the in-memory maps without bound.
type LimiterSweepJob struct {
	admission *limiter.Admission
}

func NewLimiterSweepJob(admission *limiter.Admission) *LimiterSweepJob {
	return &LimiterSweepJob{admission: admission}
}

// Run implements cron.Job.
func (j *LimiterSweepJob) Run() {
	if removed := j.admission.Sweep(); removed > 0 {
		logger.Debugf("limiter sweep removed %d entries", removed)
	}
}
