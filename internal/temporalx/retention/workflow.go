package retention

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/ghostline-backend/internal/services"
)

// AllJobs is the order a full sweep runs in.
var AllJobs = []string{
	services.JobExpirePresenceSignals,
	services.JobExpireBroadcasts,
	services.JobExpireStalePresence,
	services.JobPurgeOldTrails,
	services.JobPurgeOldPings,
}

// Workflow runs each requested job as its own activity. A failed job is recorded and the
// sweep moves on; the workflow only errors when every job failed.
func Workflow(ctx workflow.Context, in SweepInput) (SweepResult, error) {
	jobs := in.Jobs
	if len(jobs) == 0 {
		jobs = AllJobs
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})

	res := SweepResult{Deleted: make(map[string]int64, len(jobs))}
	var lastErr error
	for _, job := range jobs {
		var n int64
		if err := workflow.ExecuteActivity(ctx, ActivityPurge, job).Get(ctx, &n); err != nil {
			workflow.GetLogger(ctx).Warn("retention job failed", "job", job, "error", err)
			res.Failed = append(res.Failed, job)
			lastErr = err
			continue
		}
		res.Deleted[job] = n
	}
	if len(res.Failed) == len(jobs) && lastErr != nil {
		return res, lastErr
	}
	return res, nil
}
