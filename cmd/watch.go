package cmd

import (
	"github.com/spf13/cobra"

	"htmlindex/internal/tui"
)

var watchLogFile string

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the listing whenever pages are added, removed or renamed (TUI)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := watchLogger(debug, watchLogFile)
			if err != nil {
				return err
			}
			defer closeLog()
			return tui.Run(buildConfig(), logger)
		},
	}
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "htmlindex-watch.log", "file receiving debug logs while the TUI runs")
	rootCmd.AddCommand(watchCmd)
}
