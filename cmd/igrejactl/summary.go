package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"igreja/internal/core"
	"igreja/internal/report"
)

func summaryCmd() *cobra.Command {
	var monthName string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the tithe and attendance summary of a month",
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

			tithes := report.TitheOverview(s.ledgers.Tithes(), core.Window(s.cfg.TitheWindow), month)
			attendance := report.AttendanceOverview(s.ledgers.Attendance(), report.AttendanceQuery{
				Month:         month,
				Year:          s.cfg.ReportYear,
				RollingWindow: s.cfg.RollingWindow,
			})
			return printSummary(cmd, s.cfg.ReportYear, tithes, attendance)
		},
	}
	cmd.Flags().StringVar(&monthName, "month", "", "month name (default: current month)")
	return cmd
}

func printSummary(cmd *cobra.Command, year int, t core.TitheOverview, a core.AttendanceOverview) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dízimos %d: total pago %s\n\n", year, t.Total.BRL())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range t.Series {
		fmt.Fprintf(tw, "%s\t%s\n", p.Month, p.Total.BRL())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s: %d pagos, %d pendentes\n\n", t.Month, t.Status[core.Paid], t.Status[core.NotPaid])

	fmt.Fprintf(out, "Presença em %s (%d sábados)\n", a.Month, len(a.Saturdays))
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Tipo\tME\tFA\tVI\tTotal")
	for _, st := range core.SessionTypes() {
		sl := a.Totals[st]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", st, sl.Members, sl.Active, sl.Visitors, sl.Total())
	}
	return tw.Flush()
}
