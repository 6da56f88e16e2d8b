package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ghostline-backend/internal/app"
)

var cleanupOnce bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run the retention jobs",
	Long:  "Runs every retention job. With --once each job runs a single time and the command exits; otherwise the jobs keep running on their intervals.",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupOnce, "once", false, "run every job once and exit")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := app.New(ctx, app.Options{})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if !cleanupOnce {
		return a.RunRetention(ctx)
	}

	start := time.Now()
	deleted, err := a.RunCleanupOnce(ctx)
	names := make([]string, 0, len(deleted))
	for name := range deleted {
		names = append(names, name)
	}
	sort.Strings(names)
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%-28s %d\n", name, deleted[name])
	}
	fmt.Fprintf(out, "done in %s\n", time.Since(start).Round(time.Millisecond))
	return err
}
