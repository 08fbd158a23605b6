package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igreja/internal/auth"
)

func hashCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-code [code]",
		Short: "Print the bcrypt hash of an admin code for ADMIN_CODE_HASH",
		Long: `Print the bcrypt hash of an admin code. Without an argument the code is
read from the first line of stdin, which keeps it out of shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code string
			if len(args) == 1 {
				code = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read code: %w", err)
				}
				code = strings.TrimRight(line, "\r\n")
			}
			hash, err := auth.HashCode(code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
