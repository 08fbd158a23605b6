package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"igreja/internal/core"
)

func saturdaysCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "saturdays <month>",
		Short: "List the Saturdays of a month",
		Example: `  igrejactl saturdays Fevereiro --year 2026
  07/02, 14/02, 21/02, 28/02`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := core.SaturdaysByName(args[0], year)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(labels, ", "))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}
