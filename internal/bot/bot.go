package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"planner/internal/model"
	"planner/internal/repository"
	"planner/internal/service"
)

const (
	cbDeleteAll    = "tpldel:all:"
	cbDeleteKeep   = "tpldel:keep:"
	cbDeleteCancel = "tpldel:cancel:"
)

// Bot aggregates Telegram API with services.
type Bot struct {
	api          *tgbotapi.BotAPI
	subscribers  *repository.SubscriberRepository
	templateSvc  *service.TemplateService
	taskSvc      *service.TaskService
	recurringSvc *service.RecurringService
	reportSvc    *service.ReportService
	settingsSvc  *service.SettingsService
	limiter      *rate.Limiter
	log          zerolog.Logger
	now          func() time.Time
}

// Deps groups the services the bot talks to.
type Deps struct {
	Subscribers   *repository.SubscriberRepository
	Templates     *service.TemplateService
	Tasks         *service.TaskService
	Recurring     *service.RecurringService
	Reports       *service.ReportService
	Settings      *service.SettingsService
	Location      *time.Location
	BroadcastRate int // summary messages per second
}

func New(token string, deps Deps, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.With().Str("component", "bot").Logger()
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:          api,
		limiter:      newLimiter(deps.BroadcastRate),
		subscribers:  deps.Subscribers,
		templateSvc:  deps.Templates,
		taskSvc:      deps.Tasks,
		recurringSvc: deps.Recurring,
		reportSvc:    deps.Reports,
		settingsSvc:  deps.Settings,
		log:          log,
		now:          func() time.Time { return time.Now().In(loc) },
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return nil
}

// Notify sends the summary of a materialization run to every subscriber.
func (b *Bot) Notify(ctx context.Context, report service.Report) error {
	subs, err := b.subscribers.ListAll(ctx)
	if err != nil {
		return err
	}
	text, err := b.reportSvc.Summary(ctx, report, report.RanAt)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := b.sendText(sub.TelegramID, text); err != nil {
			b.log.Warn().Err(err).Int64("chat", sub.TelegramID).Msg("send summary")
		}
	}
	return nil
}

func newLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = 10
	}
	return rate.NewLimiter(rate.Limit(rps), rps)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. Try /help.")
	}

	b.log.Debug().Int64("user", msg.From.ID).Str("command", msg.Command()).Str("args", msg.CommandArguments()).Msg("command")
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		if err := b.subscribers.DeleteByTelegramID(ctx, msg.From.ID); err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, "You will no longer receive run summaries.")
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "templates":
		return b.handleTemplates(ctx, msg.Chat.ID)
	case "materialize":
		return b.handleMaterialize(ctx, msg.Chat.ID)
	case "tasks":
		return b.handleTasks(ctx, msg.Chat.ID)
	case "done":
		return b.handleDone(ctx, msg.Chat.ID, args)
	case "toggle":
		return b.handleToggle(ctx, msg.Chat.ID, args)
	case "deltemplate":
		return b.askDeleteTemplate(ctx, msg.Chat.ID, args)
	default:
		return b.sendText(msg.Chat.ID, "Unsupported command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /templates - recurring templates with their instance counts\n" +
	"• /materialize - create the instances due today\n" +
	"• /tasks - open tasks\n" +
	"• /done &lt;id&gt; - mark a task done\n" +
	"• /toggle &lt;template&gt; - pause or resume a template\n" +
	"• /deltemplate &lt;template&gt; - delete a template\n" +
	"• /stop - stop run summaries"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName); err != nil {
		return err
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👋 Hi, %s! You will get a summary after every recurring run.\n\n%s", escape(name), helpText))
}

func (b *Bot) handleTemplates(ctx context.Context, chatID int64) error {
	list, err := b.templateSvc.List(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load templates: %s", escape(err.Error())))
	}
	return b.sendText(chatID, formatTemplateList(list))
}

func (b *Bot) handleMaterialize(ctx context.Context, chatID int64) error {
	now := b.now()
	report, err := b.recurringSvc.Run(ctx, now)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Materialization failed: %s", escape(err.Error())))
	}
	text, err := b.reportSvc.Summary(ctx, report, now)
	if err != nil {
		return err
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64) error {
	tasks, err := b.taskSvc.ListOpen(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	settings, err := b.settingsSvc.Load(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load settings: %s", escape(err.Error())))
	}
	return b.sendText(chatID, formatTaskList(tasks, settings, b.now()))
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	taskID, err := strconv.ParseUint(args, 10, 64)
	if err != nil || taskID == 0 {
		return b.sendText(chatID, "Give the task number: /done 12")
	}
	task, err := b.taskSvc.CompleteTask(ctx, uint(taskID), b.now())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» is done.", escape(task.Title)))
}

func (b *Bot) handleToggle(ctx context.Context, chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Give the template id (a prefix is enough): /toggle 3f2a")
	}
	tpl, err := b.templateSvc.Toggle(ctx, ref)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	state := "paused"
	if tpl.Active {
		state = "active"
	}
	return b.sendText(chatID, fmt.Sprintf("Template «%s» is now %s.", escape(tpl.Title), state))
}

func (b *Bot) askDeleteTemplate(ctx context.Context, chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Give the template id (a prefix is enough): /deltemplate 3f2a")
	}
	tpl, err := b.templateSvc.Resolve(ctx, ref)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete template «%s»? Its tasks can be removed too.", escape(tpl.Title)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = deleteKeyboard(tpl.ID)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	action, id := parseDeleteCallback(cb.Data)

	var text string
	switch action {
	case "all", "keep":
		removed, err := b.templateSvc.Delete(ctx, id, action == "all")
		if err != nil {
			text = fmt.Sprintf("Error: %s", escape(err.Error()))
		} else {
			text = fmt.Sprintf("🗑 Template deleted, %d task(s) removed.", removed)
		}
	case "cancel":
		text = "Deletion cancelled."
	default:
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("answer callback")
	}
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func deleteKeyboard(templateID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 With its tasks", cbDeleteAll+templateID),
			tgbotapi.NewInlineKeyboardButtonData("📄 Template only", cbDeleteKeep+templateID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Cancel", cbDeleteCancel+templateID),
		),
	)
}

// parseDeleteCallback splits callback data into its action and template id.
func parseDeleteCallback(data string) (action, id string) {
	for _, prefix := range []string{cbDeleteAll, cbDeleteKeep, cbDeleteCancel} {
		if strings.HasPrefix(data, prefix) {
			parts := strings.Split(prefix, ":")
			return parts[1], strings.TrimPrefix(data, prefix)
		}
	}
	return "", ""
}

func formatTemplateList(list []service.TemplateSummary) string {
	if len(list) == 0 {
		return "No recurring templates yet."
	}
	var sb strings.Builder
	sb.WriteString("🔁 <b>Templates</b>\n")
	for _, s := range list {
		icon := "▶️"
		if !s.Template.Active {
			icon = "⏸"
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> <code>%s</code>\n", icon, escape(s.Template.Title), shortID(s.Template.ID)))
		sb.WriteString(fmt.Sprintf("   %s", escape(s.Label)))
		if s.Project != "" {
			sb.WriteString(fmt.Sprintf(" · %s", escape(s.Project)))
		}
		sb.WriteString(fmt.Sprintf(" · %d task(s)\n", s.Instances))
	}
	return strings.TrimSpace(sb.String())
}

func formatTaskList(tasks []model.Task, settings model.Settings, now time.Time) string {
	if len(tasks) == 0 {
		return "🎉 No open tasks."
	}
	layout := service.GoLayout(settings.DateFormat)
	overdue := make(map[uint]bool)
	for _, t := range service.Overdue(tasks, settings.OverdueThresholdDays, now) {
		overdue[t.ID] = true
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Open tasks</b>\n")
	for _, task := range tasks {
		icon := "🟢"
		switch {
		case overdue[task.ID]:
			icon = "⚠️"
		case task.IsRecurring():
			icon = "♻️"
		}
		sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, escape(task.Title)))
		if task.DueDate != nil {
			sb.WriteString(fmt.Sprintf(" · due %s", task.DueDate.Format(layout)))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
