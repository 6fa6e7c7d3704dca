package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"planner/internal/service"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Create the task instances due now",
	Args:  cobra.NoArgs,
	RunE:  runMaterialize,
}

func init() {
	materializeCmd.Flags().String("at", "", "evaluate at this time (RFC3339 or YYYY-MM-DD)")
	materializeCmd.Flags().Bool("dry-run", false, "show what would be created without saving")
	rootCmd.AddCommand(materializeCmd)
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.now()
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		if now, err = parseAt(at, a.cfg.Location); err != nil {
			return err
		}
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	var report service.Report
	if dryRun {
		report, err = a.recurring.Preview(cmd.Context(), now)
	} else {
		report, err = a.recurring.Run(cmd.Context(), now)
	}
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(w io.Writer, report service.Report) {
	verb := "Created"
	if report.DryRun {
		verb = "Would create"
	}
	fmt.Fprintf(w, "%s %d task(s) at %s\n", verb, len(report.Created), report.RanAt.Format("2006-01-02 15:04 MST"))
	for _, task := range report.Created {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format(dateLayout)
		}
		fmt.Fprintf(w, "  %s  %-10s due %s  %s\n", task.Extras.RecurrencePeriod, task.Status, due, task.Title)
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn.String())
	}
}
