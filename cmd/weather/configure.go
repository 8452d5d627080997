package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nordwx/era5cli/internal/cds"
)

func newConfigureCmd(a *app) *cobra.Command {
	var (
		token string
		url   string
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the Climate Data Store API token",
		Long:  "Writes a cdsapirc-style credentials file holding the API token used by the download commands. The token comes from the --token flag or an interactive prompt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Enter your CDS API token: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return fmt.Errorf("no token provided")
			}

			if url == "" {
				url = a.cfg.CDS.URL
			}
			path := a.cfg.CDS.CredentialsPath
			if err := cds.WriteCredentials(path, url, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "CDS API token (prompted for when omitted)")
	cmd.Flags().StringVar(&url, "url", "", "CDS API base URL (default: the configured URL)")
	return cmd
}
