package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

func newEnv(t *testing.T, acts *Activities) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	env.RegisterActivityWithOptions(acts.Purge, activity.RegisterOptions{Name: ActivityPurge})
	return env
}

func fixedJob(name string, n int64, err error) services.RetentionJob {
	return services.RetentionJob{
		Name:     name,
		Interval: time.Minute,
		Run:      func(context.Context) (int64, error) { return n, err },
	}
}

func TestWorkflowRunsRequestedJobs(t *testing.T) {
	acts := &Activities{Log: logger.Nop(), Jobs: []services.RetentionJob{
		fixedJob(services.JobExpireBroadcasts, 4, nil),
		fixedJob(services.JobPurgeOldPings, 9, nil),
	}}
	env := newEnv(t, acts)
	env.ExecuteWorkflow(WorkflowName, SweepInput{Jobs: []string{services.JobExpireBroadcasts, services.JobPurgeOldPings}})

	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res SweepResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Deleted[services.JobExpireBroadcasts] != 4 || res.Deleted[services.JobPurgeOldPings] != 9 {
		t.Fatalf("deleted: got=%v", res.Deleted)
	}
	if len(res.Failed) != 0 {
		t.Fatalf("failed: want none got=%v", res.Failed)
	}
}

func TestWorkflowRecordsUnknownJobAndContinues(t *testing.T) {
	acts := &Activities{Log: logger.Nop(), Jobs: []services.RetentionJob{
		fixedJob(services.JobExpireBroadcasts, 1, nil),
	}}
	env := newEnv(t, acts)
	env.ExecuteWorkflow(WorkflowName, SweepInput{Jobs: []string{"nope", services.JobExpireBroadcasts}})

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res SweepResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "nope" {
		t.Fatalf("failed: want=[nope] got=%v", res.Failed)
	}
	if res.Deleted[services.JobExpireBroadcasts] != 1 {
		t.Fatalf("deleted: got=%v", res.Deleted)
	}
}

func TestWorkflowFailsWhenEveryJobFails(t *testing.T) {
	acts := &Activities{Log: logger.Nop(), Jobs: []services.RetentionJob{
		fixedJob(services.JobPurgeOldTrails, 0, errors.New("db down")),
	}}
	env := newEnv(t, acts)
	env.ExecuteWorkflow(WorkflowName, SweepInput{Jobs: []string{services.JobPurgeOldTrails}})

	if env.GetWorkflowError() == nil {
		t.Fatalf("want workflow error when all jobs fail")
	}
}
