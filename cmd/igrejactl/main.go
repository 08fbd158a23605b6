package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igreja/internal/cli"
)

var (
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "igrejactl",
		Short: "Administer the tithe and attendance ledgers",
		Long: `igrejactl works on the same ledgers as the web app, configured through
the same environment variables and .env file.

Mutations are persisted, announced on the event bus when AMQP_URL is set,
and refused while a ledger cannot be parsed.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.LoadEnvFile()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(saturdaysCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(leaderCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(hashCodeCmd())
	rootCmd.AddCommand(sheetsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
