package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/dataset"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/internal/timeseries"
)

func newSaveCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Export a cached dataset as a canonical CSV file",
		Long:  "Loads a downloaded dataset, derives the canonical columns (temperatures in Celsius, relative humidity, wind speed) and writes them as CSV.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			frame, key, _, err := a.loadDataset(name)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(a.cfg.DataDir(), key+".csv")
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()

			if err := frame.WriteCSV(f); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows to %s\n", frame.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path (default: <dataset>.csv in the data directory)")
	return cmd
}

// loadDataset resolves a location name to its archive and loads the
// canonical frame. It returns the archive key and the display name the
// cache knows the location by.
func (a *app) loadDataset(name string) (*timeseries.Frame, string, string, error) {
	dataDir := a.cfg.DataDir()
	path, err := dataset.FindDataset(dataDir, name)
	if err != nil {
		return nil, "", "", err
	}
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	display := dataset.Humanize(key)
	if sqlite.Exists(dataDir) {
		if store, err := sqlite.Open(dataDir, a.log); err == nil {
			if loc, found, err := store.GetLocation(key); err == nil && found {
				display = dataset.DisplayName(key, loc.Name)
			}
			store.Close()
		}
	}

	frame, err := dataset.LoadPath(path, name)
	if err != nil {
		return nil, "", "", err
	}
	return frame, key, display, nil
}
