package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"igreja/internal/core"
	"igreja/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledgers as a workbook or a monthly PDF",
	}
	cmd.AddCommand(exportXLSXCmd(), exportPDFCmd())
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write both ledgers to one workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if output == "" {
				output = fmt.Sprintf("igreja-%d.xlsx", s.cfg.ReportYear)
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return export.WriteWorkbook(w, s.ledgers.Tithes(), s.ledgers.Attendance())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func exportPDFCmd() *cobra.Command {
	var output, monthName string
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Write the tithe report of one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month := core.Month(time.Now().Month())
			if monthName != "" {
				m, err := core.ParseMonth(monthName)
				if err != nil {
					return err
				}
				month = m
			}
			s, err := openLedgers(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if output == "" {
				output = fmt.Sprintf("dizimos-%02d-%d.pdf", int(month), s.cfg.ReportYear)
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return export.WriteTithesPDF(w, s.ledgers.TitheMonth(month), month, s.cfg.ReportYear)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVar(&monthName, "month", "", "month name (default: current month)")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
