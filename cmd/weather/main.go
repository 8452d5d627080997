package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/config"
	"github.com/nordwx/era5cli/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

// app carries the loaded configuration and logger shared by all
// subcommands.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:     "weather",
		Short:   "Download, cache and report on ERA5-Land weather data",
		Long:    "weather downloads ERA5-Land hourly time-series from the Climate Data Store, keeps a local archive cache with a queryable index, and renders HTML reports.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFallback(configPath)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log, err := logger.New(logger.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("error creating logger: %w", err)
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (optional)")

	root.AddCommand(
		newConfigureCmd(a),
		newDownloadCmd(a),
		newSaveCmd(a),
		newReportCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newRefreshCmd(a),
		newBulkCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
