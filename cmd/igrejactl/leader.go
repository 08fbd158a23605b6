package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func leaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leader",
		Short: "Manage the leaders of the tithe ledger",
	}
	cmd.AddCommand(leaderListCmd(), leaderAddCmd(), leaderRemoveCmd(), leaderRenameCmd())
	return cmd
}

func leaderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List leaders in ledger order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(s.ledgers.Leaders(), "\n"))
			return nil
		},
	}
}

func leaderAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a leader with one unpaid row per window month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.ledgers.AddLeader(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func leaderRemoveCmd() *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove every row of a leader",
		Long: `Remove every row of a leader across all months. This cannot be undone,
so --confirm must repeat the name exactly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm != args[0] {
				return fmt.Errorf("refusing to remove %q: pass --confirm %q", args[0], args[0])
			}
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.ledgers.RemoveLeader(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the leader name to confirm")
	return cmd
}

func leaderRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a leader in every month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.ledgers.RenameLeader(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], strings.TrimSpace(args[1]))
			return nil
		},
	}
}
