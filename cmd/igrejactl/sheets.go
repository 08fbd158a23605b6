package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igreja/internal/backend"
	"igreja/internal/cli"
	"igreja/internal/config"
	"igreja/internal/ledger/google"
	"igreja/internal/worker"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets authorization and mirroring",
	}
	cmd.AddCommand(sheetsAuthCmd(), sheetsMirrorCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize spreadsheet access with a Google user account",
		Long: `Run the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or
GOOGLE_OAUTH_CLIENT_FILE and store the token in GOOGLE_OAUTH_TOKEN_FILE
(default token.json). The redirect URI http://localhost:<port>/callback must
be registered for the client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := google.OAuthConfigFromEnv()
			if err != nil {
				return err
			}
			tok, err := google.Authorize(cmd.Context(), cfg, port, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			path := google.TokenFile()
			if err := google.SaveToken(path, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	return cmd
}

func sheetsMirrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Copy both ledgers from the primary store to the spreadsheet once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.DataBackend == string(backend.SheetsBackend) {
				return fmt.Errorf("primary backend is already %s", backend.SheetsBackend)
			}
			bc, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			logger := cli.SetupLoggerTo(os.Stderr, cfg.LogFormat, logLevel)

			factory := backend.NewFactory(logger.Logger)
			source, err := factory.CreateBackend(ctx, bc)
			if err != nil {
				return err
			}
			defer func() {
				if source.Cleanup != nil {
					_ = source.Cleanup()
				}
			}()
			mirror, err := factory.CreateSheetsClient(ctx, bc)
			if err != nil {
				return err
			}
			if err := worker.NewMirrorWorker(source.Backend, mirror, logger, nil).MirrorAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mirrored tithes and attendance")
			return nil
		},
	}
}
