package retention

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

// EnsureSchedules creates one Temporal schedule per job at the job's interval. Existing
// schedules are left as they are so redeploys do not reset their cadence.
func EnsureSchedules(ctx context.Context, log *logger.Logger, c temporalsdkclient.Client, taskQueue string, jobs []services.RetentionJob) error {
	if c == nil {
		return fmt.Errorf("retention schedules: temporal client is not configured")
	}
	sc := c.ScheduleClient()
	for _, job := range jobs {
		if job.Interval <= 0 {
			continue
		}
		id := SchedulePrefix + job.Name
		_, err := sc.Create(ctx, temporalsdkclient.ScheduleOptions{
			ID: id,
			Spec: temporalsdkclient.ScheduleSpec{
				Intervals: []temporalsdkclient.ScheduleIntervalSpec{{Every: job.Interval}},
			},
			Action: &temporalsdkclient.ScheduleWorkflowAction{
				ID:        id,
				Workflow:  WorkflowName,
				Args:      []interface{}{SweepInput{Jobs: []string{job.Name}}},
				TaskQueue: taskQueue,
			},
			Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		})
		if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
			log.Debug("Retention schedule exists", "schedule_id", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("create schedule %s: %w", id, err)
		}
		log.Info("Created retention schedule", "schedule_id", id, "every", job.Interval)
	}
	return nil
}
