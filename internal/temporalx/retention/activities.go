package retention

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type Activities struct {
	Log     *logger.Logger
	Jobs    []services.RetentionJob
	Metrics *observability.Metrics
}

func (a *Activities) find(name string) (services.RetentionJob, bool) {
	for _, j := range a.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return services.RetentionJob{}, false
}

// Purge runs one retention job by name. Unknown names fail without retry.
func (a *Activities) Purge(ctx context.Context, job string) (int64, error) {
	j, ok := a.find(job)
	if !ok || j.Run == nil {
		return 0, temporal.NewNonRetryableApplicationError(fmt.Sprintf("unknown retention job %q", job), "UnknownJob", nil)
	}
	start := time.Now()
	n, err := j.Run(ctx)
	a.Metrics.ObserveRetention(job, n, time.Since(start), err)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("retention activity failed", "job", job, "error", err)
		}
		return 0, err
	}
	return n, nil
}
