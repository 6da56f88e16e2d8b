package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/ghostline-backend/internal/app"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal retention worker",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := app.New(ctx, app.Options{WithTemporal: true})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.RunWorker(ctx)
}
