package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
)

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a cached dataset and its archive files",
		Long:  "Removes a location from the cache index together with its downloaded archive and any exported files.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			dataDir, err := a.cfg.EnsureDataDir()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(dataDir, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := cache.Delete(dataDir, store, name, a.log)
			if err != nil {
				return err
			}
			if !result.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "Location '%s' was not found.\n", name)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %d weather rows, %d location rows, %d files removed.\n",
				result.DisplayName, result.WeatherRows, result.LocationRows, len(result.FilesRemoved))
			return nil
		},
	}
	return cmd
}
