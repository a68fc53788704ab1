package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trafficmix/internal/logger"
	"trafficmix/internal/target"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run the demo service the built-in mixes are written for",
	Long: `Serves /good, /ok, /bad, /acceptable, /veryslow, /err and /notfound
with their simulated latencies and failure rates, plus Prometheus metrics
on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.FromConfig()
		defer log.Sync()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv := target.New(target.ServerConfig{
			Addr:    viper.GetString("target.addr"),
			Instant: viper.GetBool("target.instant"),
		}, log)
		return srv.Run(ctx)
	},
}

func init() {
	targetCmd.Flags().StringP("addr", "a", ":8080", "Listen address")
	targetCmd.Flags().Bool("instant", false, "Skip the simulated endpoint latencies")
	viper.BindPFlag("target.addr", targetCmd.Flags().Lookup("addr"))
	viper.BindPFlag("target.instant", targetCmd.Flags().Lookup("instant"))
}
