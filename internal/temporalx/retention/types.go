package retention

const (
	WorkflowName   = "retention_sweep"
	ActivityPurge  = "retention_purge"
	SchedulePrefix = "ghostline-retention-"
)

// SweepInput names the jobs one workflow run should execute; empty means all of them.
type SweepInput struct {
	Jobs []string `json:"jobs,omitempty"`
}

type SweepResult struct {
	Deleted map[string]int64 `json:"deleted"`
	Failed  []string         `json:"failed,omitempty"`
}
