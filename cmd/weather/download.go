package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/cds"
	"github.com/nordwx/era5cli/internal/dataset"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/pkg/logger"
)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		lat     float64
		lon     float64
		country string
	)

	cmd := &cobra.Command{
		Use:   "download NAME",
		Short: "Download the ERA5-Land time-series for one location",
		Long:  "Requests the hourly ERA5-Land time-series at the given coordinates from the Climate Data Store and stores the archive in the data directory. Already downloaded locations are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

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

			skipped, err := a.downloadLocation(ctx, client, store, name, country, lat, lon)
			if err != nil {
				return err
			}
			if skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "Dataset for %s is already present, skipping download.\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Downloaded dataset for %s.\n", name)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().StringVar(&country, "country", "", "Country code stored with the cached location")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

// downloadLocation fetches one location archive and records it in the
// cache index. An archive already on disk is not fetched again.
func (a *app) downloadLocation(ctx context.Context, client *cds.Client, store *sqlite.Store, name, country string, lat, lon float64) (skipped bool, err error) {
	if err := dataset.ValidateCoordinates(lat, lon); err != nil {
		return false, err
	}

	filename := dataset.ArchiveFilename(name, lat, lon)
	path := filepath.Join(a.cfg.DataDir(), filename)
	key := strings.TrimSuffix(filename, filepath.Ext(filename))

	if _, statErr := os.Stat(path); statErr == nil {
		skipped = true
	} else {
		req := cds.Request{
			Dataset:   a.cfg.Download.Dataset,
			Variables: dataset.Variables,
			Latitude:  lat,
			Longitude: lon,
			DateRange: a.cfg.Download.DateRange,
			Format:    "csv",
		}
		if err := client.Retrieve(ctx, req, path); err != nil {
			return false, fmt.Errorf("failed to download dataset for %s: %w", name, err)
		}
		a.log.Info("Archive downloaded",
			logger.String("location", name),
			logger.String("path", path))
	}

	loc := sqlite.Location{
		Filename:  key,
		Name:      name,
		Country:   country,
		Latitude:  &lat,
		Longitude: &lon,
	}
	if err := store.UpsertLocation(loc); err != nil {
		return skipped, fmt.Errorf("failed to index location %s: %w", name, err)
	}
	return skipped, nil
}
