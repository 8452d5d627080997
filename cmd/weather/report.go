package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/report"
	"github.com/nordwx/era5cli/pkg/logger"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		output      string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "report NAME",
		Short: "Render an HTML report for a cached dataset",
		Long:  "Builds the summary table and climatology charts for a downloaded dataset and writes them as a single static HTML page.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			frame, key, display, err := a.loadDataset(name)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(a.cfg.DataDir(), key+".html")
			}
			if err := report.Render(frame, display, output, a.log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)

			if openBrowser {
				if err := openInBrowser(output); err != nil {
					a.log.Warn("Failed to open report in browser", logger.Error(err))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output HTML path (default: <dataset>.html in the data directory)")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "Open the report in the default browser")
	return cmd
}

func openInBrowser(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}
