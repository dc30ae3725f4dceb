package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvbach/llm-bridge/internal/bootstrap"
	"github.com/nvbach/llm-bridge/internal/config"
	"github.com/nvbach/llm-bridge/internal/logging"
	log "github.com/nvbach/llm-bridge/internal/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the llm-bridge server",
	Long: `Start the llm-bridge gateway server.

Loads the configuration, wires the protocol translator and starts the
HTTP server. The config file is watched and hot-reloaded on change.`,
	Run: func(c *cobra.Command, args []string) {
		logging.SetupBaseLogger()

		result, err := bootstrap.Bootstrap(cfgFile)
		if err != nil {
			log.Fatalf("Failed to bootstrap: %v", err)
		}
		cfg := result.Config
		if servePort != 0 {
			cfg.Port = servePort
		}

		if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
			log.Fatalf("Failed to configure log output: %v", err)
		}

		stopWatch, err := config.Watch(result.ConfigFilePath, func(next *config.Config) {
			bootstrap.ApplyEnvOverrides(next)
			result.Server.SwapConfig(next)
			log.Infof("config reloaded: %d providers", len(next.Providers))
		})
		if err != nil {
			log.Warnf("config watch disabled: %v", err)
		} else {
			defer stopWatch()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := result.Server.Run(ctx); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the configured server port")
	rootCmd.AddCommand(serveCmd)
}
