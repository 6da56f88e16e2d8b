package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/ghostline-backend/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := app.New(ctx, app.Options{})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	a.Log.Info("Starting ghostline", "version", app.Version, "port", a.Cfg.Port, "retention_mode", a.Cfg.RetentionMode)
	return a.Serve(ctx)
}
