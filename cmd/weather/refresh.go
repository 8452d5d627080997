package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
)

func newRefreshCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh-database",
		Short: "Rebuild the cache index from the archives on disk",
		Long:  "Clears the cache index and rescans the data directory, adding one location per readable archive. Archives with no usable data columns are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.cfg.EnsureDataDir()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(dataDir, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := cache.Refresh(dataDir, store, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed cache: %d datasets indexed, %d skipped.\n",
				result.Processed, result.Skipped)
			return nil
		},
	}
	return cmd
}
