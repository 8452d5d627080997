package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
)

func newListCmd(a *app) *cobra.Command {
	var filterExpr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached datasets",
		Long: `Lists the locations in the cache index, sorted by country then name.

The --filter flag accepts a small query language over the fields name,
country, lat and lon, for example:

  weather list --filter "country = SE and lat > 60"
  weather list --filter "name contains holm or country = NO"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := a.cfg.DataDir()
			if !sqlite.Exists(dataDir) {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached datasets found. Run 'weather refresh-database' to scan the data directory.")
				return nil
			}

			store, err := sqlite.Open(dataDir, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := cache.List(store, filterExpr)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				if filterExpr != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No cached datasets match the filter.")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No cached datasets found. Run 'weather refresh-database' to scan the data directory.")
				}
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cache.FormatTable(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&filterExpr, "filter", "", "Filter expression, e.g. \"country = SE and lat > 60\"")
	return cmd
}
