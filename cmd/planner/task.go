package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"planner/internal/service"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List open tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create a one-off task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Move a task to the trash",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

var taskTrashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List trashed tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskTrash,
}

var taskRestoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Take a task back out of the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRestore,
}

var taskPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove tasks trashed longer than trashRetentionDays",
	Args:  cobra.NoArgs,
	RunE:  runTaskPurge,
}

func init() {
	f := taskAddCmd.Flags()
	f.String("project", "", "project name (created when missing)")
	f.String("status", "", "task status (doing, done, paused)")
	f.String("priority", "", "task priority (high, medium, low)")
	f.String("due", "", "due date (YYYY-MM-DD)")
	f.String("notes", "", "notes")
	f.String("next-step", "", "next step")
	f.StringSlice("tags", nil, "comma-separated tags")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskDoneCmd, taskDeleteCmd, taskTrashCmd, taskRestoreCmd, taskPurgeCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.tasks.ListOpen(cmd.Context())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No open tasks.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE\tTEMPLATE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(dateLayout)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title, shortID(t.Extras.RecurrenceID))
	}
	return tw.Flush()
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	f := cmd.Flags()
	input := service.TaskInput{Title: args[0]}
	input.Project, _ = f.GetString("project")
	input.Status, _ = f.GetString("status")
	input.Priority, _ = f.GetString("priority")
	input.Notes, _ = f.GetString("notes")
	input.NextStep, _ = f.GetString("next-step")
	input.Tags, _ = f.GetStringSlice("tags")
	due, _ := f.GetString("due")
	if input.DueDate, err = parseDate(due, a.cfg.Location); err != nil {
		return err
	}

	task, err := a.tasks.CreateTask(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d: %s\n", task.ID, task.Title)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := a.tasks.CompleteTask(cmd.Context(), id, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task #%d done: %s\n", task.ID, task.Title)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tasks.DeleteTask(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved task #%d to the trash\n", id)
	return nil
}

func runTaskTrash(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.tasks.ListTrash(cmd.Context())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDELETED\tTITLE\tTEMPLATE")
	for _, t := range tasks {
		deleted := t.DeletedAt.Time.In(a.cfg.Location).Format(dateLayout)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, deleted, t.Title, shortID(t.Extras.RecurrenceID))
	}
	return tw.Flush()
}

func runTaskRestore(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tasks.RestoreTask(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored task #%d\n", id)
	return nil
}

func runTaskPurge(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	purged, err := a.tasks.PurgeTrash(cmd.Context(), a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d task(s)\n", purged)
	return nil
}
