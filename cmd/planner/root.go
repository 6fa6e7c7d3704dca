package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"planner/internal/config"
	"planner/internal/logging"
	"planner/internal/repository"
	"planner/internal/service"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Recurring task planner",
	Long: `planner keeps recurring task templates and turns them into concrete
tasks once per period. Run "planner serve" for the daemon and Telegram bot.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config (default $PLANNER_CONFIG)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app wires configuration, storage and services for a single command.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *gorm.DB

	subscribers *repository.SubscriberRepository
	templates   *service.TemplateService
	tasks       *service.TaskService
	recurring   *service.RecurringService
	settings    *service.SettingsService
	reports     *service.ReportService
}

// openApp loads the configuration and opens the database. Logs go to
// stderr, as JSON when stderr is not a terminal.
func openApp() (*app, error) {
	return openAppWithLog(func(cfg logging.Config) zerolog.Logger {
		cfg.Console = cfg.Console && term.IsTerminal(int(os.Stderr.Fd()))
		return logging.NewWithWriter(cfg, os.Stderr)
	})
}

func openAppWithLog(newLog func(logging.Config) zerolog.Logger) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := newLog(logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(db), log)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		subscribers: repository.NewSubscriberRepository(db),
		templates:   service.NewTemplateService(templateRepo, taskRepo, projectRepo, log),
		tasks:       service.NewTaskService(taskRepo, projectRepo, settingsSvc, log),
		recurring:   service.NewRecurringService(templateRepo, taskRepo, log),
		settings:    settingsSvc,
		reports:     service.NewReportService(taskRepo, projectRepo, settingsSvc),
	}, nil
}

func (a *app) now() time.Time {
	return time.Now().In(a.cfg.Location)
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
