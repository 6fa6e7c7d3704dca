package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/service"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage recurring templates",
}

var templateAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create a recurring template",
	Long: `Creates a template. Examples:

  planner template add "Standup notes" --project Ops --every daily
  planner template add "Weekly report" --project Ops --every weekly --days mon,thu --due endOfWeek
  planner template add "Invoices" --project Admin --every monthly --day 31 --interval 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateAdd,
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List templates",
	Args:    cobra.NoArgs,
	RunE:    runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a template and its instances",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Pause or resume a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateToggle,
}

var templateDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a template",
	Long:    `Deletes a template. With --cascade the tasks it created are deleted too.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTemplateDelete,
}

func init() {
	f := templateAddCmd.Flags()
	f.String("project", "", "project name (created when missing)")
	f.String("every", "daily", "schedule type: daily, weekly or monthly")
	f.StringSlice("days", nil, "weekdays for weekly schedules, e.g. mon,wed")
	f.Int("day", 0, "day of month for monthly schedules (clamped to the month's end)")
	f.Int("interval", 1, "repeat every N weeks or months")
	f.Bool("flexible", false, "allow any day within the period")
	f.String("status", "", "status of created tasks (doing, done, paused)")
	f.String("priority", "", "priority of created tasks (high, medium, low)")
	f.String("due", string(model.DueNone), "due date: sameDay, endOfWeek, endOfMonth or none")
	f.String("notes", "", "notes copied to every task")
	f.String("next-step", "", "next step copied to every task")
	f.String("onsite-owner", "", "onsite owner copied to every task")
	f.String("line-owner", "", "line owner copied to every task")
	f.StringSlice("tags", nil, "comma-separated tags")
	f.Bool("paused", false, "create the template inactive")

	templateDeleteCmd.Flags().Bool("cascade", false, "also delete the tasks created from the template")

	templateCmd.AddCommand(templateAddCmd, templateListCmd, templateShowCmd, templateToggleCmd, templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var sf scheduleFlags
	sf.every, _ = f.GetString("every")
	sf.days, _ = f.GetStringSlice("days")
	sf.dayOfMonth, _ = f.GetInt("day")
	sf.interval, _ = f.GetInt("interval")
	sf.flexible, _ = f.GetBool("flexible")
	schedule, err := sf.schedule()
	if err != nil {
		return err
	}

	input := service.TemplateInput{Title: args[0], Schedule: schedule}
	input.Project, _ = f.GetString("project")
	input.Status, _ = f.GetString("status")
	input.Priority, _ = f.GetString("priority")
	due, _ := f.GetString("due")
	input.DueStrategy = model.DueStrategy(due)
	input.Defaults.Notes, _ = f.GetString("notes")
	input.Defaults.NextStep, _ = f.GetString("next-step")
	input.Defaults.OnsiteOwner, _ = f.GetString("onsite-owner")
	input.Defaults.LineOwner, _ = f.GetString("line-owner")
	input.Defaults.Tags, _ = f.GetStringSlice("tags")
	paused, _ := f.GetBool("paused")
	input.Active = !paused

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tpl, err := a.templates.Create(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created template %s: %s (%s)\n", tpl.ID, tpl.Title, recurrence.Describe(tpl.Schedule))
	return nil
}

func runTemplateList(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.templates.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTIVE\tPROJECT\tTITLE\tSCHEDULE\tDUE\tTASKS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\t%s\t%d\n",
			shortID(s.Template.ID), s.Template.Active, s.Project, s.Template.Title, s.Label, s.Template.DueStrategy, s.Instances)
	}
	return tw.Flush()
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tpl, err := a.templates.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	tasks, err := a.templates.Instances(cmd.Context(), tpl.ID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:        %s\n", tpl.ID)
	fmt.Fprintf(w, "Title:     %s\n", tpl.Title)
	fmt.Fprintf(w, "Schedule:  %s\n", recurrence.Describe(tpl.Schedule))
	fmt.Fprintf(w, "Due:       %s\n", tpl.DueStrategy)
	fmt.Fprintf(w, "Active:    %t\n", tpl.Active)
	fmt.Fprintf(w, "Instances: %d\n", len(tasks))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range tasks {
		fmt.Fprintf(tw, "  #%d\t%s\t%s\n", t.ID, t.Extras.RecurrencePeriod, t.Status)
	}
	return tw.Flush()
}

func runTemplateToggle(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tpl, err := a.templates.Toggle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	state := "paused"
	if tpl.Active {
		state = "active"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template %s is now %s\n", shortID(tpl.ID), state)
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	cascade, _ := cmd.Flags().GetBool("cascade")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.templates.Delete(cmd.Context(), args[0], cascade)
	if err != nil {
		return err
	}
	if cascade {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted template and %d task(s)\n", removed)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted template, its tasks were kept")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
