package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Azunyan1111/go-webm-relay/internal/relaylog"
)

var (
	debugMode bool
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "webm-relay",
	Short: "Live WebM stream relay",
	Long: `webm-relay accepts an in-progress WebM upload over HTTP and fans it out to
any number of listeners as a continuously-playable stream.

Examples:
  webm-relay serve localhost:8080
  ffmpeg -i input.webm -c copy -f webm - | curl -T - http://localhost:8080/live/demo
  webm-relay filter --throttle < recorded.webm | curl -T - http://localhost:8080/live/demo
  webm-relay dump recorded.webm`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = relaylog.New(debugMode)
	},
}

func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}
