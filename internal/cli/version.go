package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/ghostline-backend/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ghostline %s\n", app.Version)
	},
}
