package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"planner/internal/bot"
	"planner/internal/config"
	"planner/internal/logging"
	"planner/internal/service"
)

const (
	jobTimeout = 30 * time.Second
	// purgeAt is when trashed tasks past their retention are removed.
	purgeAt = "03:30"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon and the Telegram bot",
	Long: `Materializes due templates once at startup, then every day at run_at
and, when interval_hours is set, on that interval too. The Telegram bot
starts when a token is configured. Changing run_at in the config file
moves the daily run without a restart. Trashed tasks older than
trashRetentionDays are purged every night at 03:30.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openAppWithLog(logging.New)
	if err != nil {
		return err
	}
	defer a.Close()

	var telegramBot *bot.Bot
	if a.cfg.TelegramToken != "" {
		telegramBot, err = bot.New(a.cfg.TelegramToken, bot.Deps{
			Subscribers:   a.subscribers,
			Templates:     a.templates,
			Tasks:         a.tasks,
			Recurring:     a.recurring,
			Reports:       a.reports,
			Settings:      a.settings,
			Location:      a.cfg.Location,
			BroadcastRate: a.cfg.BroadcastRate,
		}, a.log)
		if err != nil {
			return err
		}
	} else {
		a.log.Info().Msg("TELEGRAM_TOKEN not set, bot disabled")
	}

	job := materializeJob(ctx, a, telegramBot)
	job()

	scheduler := service.NewSchedulerService(a.cfg.Location)
	dailyID, err := scheduler.ScheduleDaily(a.cfg.RunAt, job)
	if err != nil {
		return err
	}
	if a.cfg.Interval > 0 {
		if _, err := scheduler.ScheduleInterval(a.cfg.Interval, job); err != nil {
			return err
		}
	}
	if _, err := scheduler.ScheduleDaily(purgeAt, purgeJob(ctx, a)); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info().
		Str("run_at", a.cfg.RunAt).
		Dur("interval", a.cfg.Interval).
		Time("next", scheduler.Next(dailyID)).
		Msg("planner started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if telegramBot != nil {
		g.Go(func() error {
			if err := telegramBot.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if path, _ := config.ResolvePath(flagConfig); path != "" {
		runAt := a.cfg.RunAt
		g.Go(func() error {
			err := config.Watch(gctx, path, a.log, func(next config.Config) {
				if next.RunAt == runAt {
					return
				}
				id, err := scheduler.RescheduleDaily(dailyID, next.RunAt, job)
				if err != nil {
					a.log.Error().Err(err).Str("run_at", next.RunAt).Msg("reschedule")
					return
				}
				dailyID, runAt = id, next.RunAt
				a.log.Info().Str("run_at", runAt).Time("next", scheduler.Next(dailyID)).Msg("daily run moved")
			})
			if err != nil {
				a.log.Warn().Err(err).Msg("config reload disabled")
			}
			return nil
		})
	}

	sdNotify(a.log, daemon.SdNotifyReady)
	err = g.Wait()
	sdNotify(a.log, daemon.SdNotifyStopping)
	if err != nil {
		return err
	}

	a.log.Info().Msg("shutdown complete")
	return nil
}

// materializeJob returns the cron job: one materialization pass followed by
// a summary to subscribers when the bot runs.
func materializeJob(ctx context.Context, a *app, telegramBot *bot.Bot) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		report, err := a.recurring.Run(jobCtx, a.now())
		if err != nil {
			logJobError(a.log, err, "materialize")
			return
		}
		if telegramBot == nil || (len(report.Created) == 0 && len(report.Warnings) == 0) {
			return
		}
		if err := telegramBot.Notify(jobCtx, report); err != nil {
			logJobError(a.log, err, "notify")
		}
	}
}

func purgeJob(ctx context.Context, a *app) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		if _, err := a.tasks.PurgeTrash(jobCtx, a.now()); err != nil {
			logJobError(a.log, err, "purge trash")
		}
	}
}

// sdNotify reports state to systemd. It is a no-op outside a notify unit.
func sdNotify(log zerolog.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warn().Err(err).Str("state", state).Msg("sd_notify")
	}
}

func logJobError(log zerolog.Logger, err error, what string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Error().Err(err).Msg(what)
}
