package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"planner/internal/model"
	"planner/internal/service"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change preferences",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a setting",
	Long:  "Changes a setting. Keys: " + strings.Join(service.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings.Load(cmd.Context())
	if err != nil {
		return err
	}
	values := settingValues(settings)
	if len(args) == 1 {
		v, ok := values[args[0]]
		if !ok {
			return fmt.Errorf("unknown setting %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	}
	for _, key := range service.Keys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, values[key])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings.Set(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], settingValues(settings)[args[0]])
	return nil
}

func settingValues(s model.Settings) map[string]string {
	return map[string]string{
		service.KeyDateFormat:           s.DateFormat,
		service.KeyOverdueThresholdDays: fmt.Sprint(s.OverdueThresholdDays),
		service.KeyTrashRetentionDays:   fmt.Sprint(s.TrashRetentionDays),
	}
}
