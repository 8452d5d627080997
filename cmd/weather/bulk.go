package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/bulk"
	"github.com/nordwx/era5cli/internal/cds"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/pkg/logger"
)

func newBulkCmd(a *app) *cobra.Command {
	var (
		csvPath string
		workers int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Download many locations from a CSV manifest",
		Long:  "Reads a CSV manifest with name, country, lat and lon columns and downloads every listed location through a bounded worker pool. A failed location never stops the others.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := bulk.ReadJobs(csvPath)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Manifest contains no locations.")
				return nil
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Would download %d locations:\n", len(jobs))
				for _, job := range jobs {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s) %.4f, %.4f\n", job.Name, job.Country, job.Lat, job.Lon)
				}
				return nil
			}

			dataDir, err := a.cfg.EnsureDataDir()
			if err != nil {
				return err
			}
			client, err := cds.NewClient(a.cfg.CDS, a.log)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(dataDir, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool := bulk.NewPool(workers, a.log)
			outcomes := pool.Run(ctx, jobs, func(ctx context.Context, job bulk.Job) error {
				skipped, err := a.downloadLocation(ctx, client, store, job.Name, job.Country, job.Lat, job.Lon)
				if skipped {
					a.log.Info("Archive already present", logger.String("location", job.Name))
				}
				return err
			})

			failures := bulk.Failures(outcomes)
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %d of %d locations.\n", len(outcomes)-len(failures), len(outcomes))
			if len(failures) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Failed locations:")
				for _, f := range failures {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", f.Job.Name, f.Err)
				}
				return fmt.Errorf("%d of %d locations failed", len(failures), len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV manifest (columns: name, country, lat, lon)")
	cmd.Flags().IntVar(&workers, "workers", 5, "Number of concurrent downloads")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the locations without downloading")
	cmd.MarkFlagRequired("csv")
	return cmd
}
