package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
)

var errBadIndex = errors.New("bad task number")

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "new":
		return b.startNewTask(ctx, msg)
	case "list":
		return b.handleList(msg)
	case "done":
		return b.handleDone(msg)
	case "delete":
		return b.handleDelete(msg)
	case "undo":
		return b.handleUndo(msg)
	case "clear":
		return b.handleClear(msg)
	case "stats":
		return b.handleStats(msg)
	case "categories":
		return b.handleCategories(msg)
	case "report":
		return b.handleReport(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.Upsert(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.UserName); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your to-do list and send you a daily report.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	removed, err := b.subscribers.Remove(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if !removed {
		return b.sendText(msg.Chat.ID, "You are not subscribed to reports. Send /start to subscribe.")
	}
	return b.sendText(msg.Chat.ID, "🔕 You will no longer receive reports. Send /start to subscribe again.")
}

const commandList = "Commands:\n" +
	"• /new — add a task step by step\n" +
	"• /list [all|today|upcoming|completed] — show tasks\n" +
	"• /done &lt;n&gt; — complete or reopen task n\n" +
	"• /delete &lt;n&gt; — delete task n\n" +
	"• /undo — restore the last deleted task\n" +
	"• /clear — remove completed tasks\n" +
	"• /stats — your progress\n" +
	"• /categories — categories and task counts\n" +
	"• /report — daily report now\n" +
	"• /stop — stop daily reports\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+commandList)
}

func (b *Bot) handleList(msg *tgbotapi.Message) error {
	view, err := model.ParseView(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Unknown list. Use /list all, today, upcoming or completed.")
	}
	return b.sendTaskList(msg.Chat.ID, view)
}

func (b *Bot) handleDone(msg *tgbotapi.Message) error {
	task, err := b.resolveIndex(msg.Chat.ID, msg.CommandArguments())
	if err != nil {
		return b.replyError(msg.Chat.ID, "/done", err)
	}
	return b.toggleAndReport(msg.Chat.ID, task.ID)
}

func (b *Bot) handleDelete(msg *tgbotapi.Message) error {
	task, err := b.resolveIndex(msg.Chat.ID, msg.CommandArguments())
	if err != nil {
		return b.replyError(msg.Chat.ID, "/delete", err)
	}
	return b.deleteAndReport(msg.Chat.ID, task.ID)
}

func (b *Bot) handleUndo(msg *tgbotapi.Message) error {
	task, err := b.tasks.UndoDelete()
	if err != nil {
		return b.replyError(msg.Chat.ID, "/undo", err)
	}
	b.logger.Info("task restored", slog.String("id", task.ID))
	return b.sendText(msg.Chat.ID, fmt.Sprintf("♻️ Task «%s» restored.", escape(task.Title)))
}

func (b *Bot) handleClear(msg *tgbotapi.Message) error {
	removed := b.tasks.ClearCompleted()
	if removed == 0 {
		return b.sendText(msg.Chat.ID, "There are no completed tasks to clear.")
	}
	b.logger.Info("completed tasks cleared", slog.Int("removed", removed))
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🧹 Removed %d completed %s.", removed, plural(removed, "task", "tasks")))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, formatStats(b.tasks.Stats()))
}

func (b *Bot) handleCategories(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, formatCategories(b.tasks.Categories(), b.tasks.Tasks()))
}

func (b *Bot) handleReport(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, b.reminders.DailySummary(b.tasks.Now()))
}

// SendDailyReports sends the daily summary to every subscriber. Nothing is
// sent while notifications are disabled in the settings.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	if !b.tasks.Settings().EnableNotifications {
		b.logger.InfoContext(ctx, "notifications disabled, skipping reports")
		return nil
	}

	subs, err := b.subscribers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	text := b.reminders.DailySummary(b.tasks.Now())
	sent := 0
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(sub.ChatID, text); err != nil {
			b.logger.ErrorContext(ctx, "send report", slog.Int64("chat", sub.ChatID), slog.Any("error", err))
			continue
		}
		sent++
	}
	b.logger.InfoContext(ctx, "daily reports sent", slog.Int("sent", sent), slog.Int("subscribers", len(subs)))
	return nil
}

// resolveIndex maps a 1-based task number from the last list shown in the
// chat to a task. Without a previous list the "all" view is used.
func (b *Bot) resolveIndex(chatID int64, arg string) (model.Task, error) {
	n, err := parseIndex(arg)
	if err != nil {
		return model.Task{}, err
	}

	ids, ok := b.listing(chatID)
	if !ok {
		ids = taskIDs(b.tasks.View(model.ViewAll))
	}
	if n > len(ids) {
		return model.Task{}, errBadIndex
	}
	return b.tasks.Get(ids[n-1])
}

func parseIndex(arg string) (int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errBadIndex
	}
	return n, nil
}

func (b *Bot) toggleAndReport(chatID int64, id string) error {
	task, err := b.tasks.ToggleComplete(id)
	if err != nil {
		return b.replyError(chatID, "/done", err)
	}
	b.logger.Info("task toggled", slog.String("id", task.ID), slog.Bool("completed", task.Completed))

	if task.Completed {
		return b.sendText(chatID, fmt.Sprintf("✅ Task «%s» completed.", escape(task.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ Task «%s» reopened.", escape(task.Title)))
}

func (b *Bot) deleteAndReport(chatID int64, id string) error {
	task, err := b.tasks.Get(id)
	if err != nil {
		return b.replyError(chatID, "/delete", err)
	}
	if err := b.tasks.Delete(id); err != nil {
		return b.replyError(chatID, "/delete", err)
	}
	b.logger.Info("task deleted", slog.String("id", id))
	return b.sendText(chatID, fmt.Sprintf("🗑 Task «%s» deleted. Send /undo to restore it.", escape(task.Title)))
}

func (b *Bot) sendTaskList(chatID int64, view model.View) error {
	tasks := b.tasks.View(view)
	b.setListing(chatID, taskIDs(tasks))

	catNames := make(map[string]string)
	for _, cat := range b.tasks.Categories() {
		catNames[cat.ID] = cat.Name
	}

	text := formatListing(tasks, view, catNames, b.tasks.Now())
	if len(tasks) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, taskKeyboard(tasks))
}

// replyError turns a domain error into a chat reply.
func (b *Bot) replyError(chatID int64, command string, err error) error {
	var text string
	switch {
	case errors.Is(err, errBadIndex):
		text = fmt.Sprintf("Give the task number from /list, e.g. <code>%s 2</code>.", command)
	case errors.Is(err, model.ErrTaskNotFound):
		text = "Task not found. Send /list to refresh the numbers."
	case errors.Is(err, model.ErrNothingToUndo):
		text = "Nothing to undo."
	default:
		b.logger.Error("command failed", slog.String("command", command), slog.Any("error", err))
		text = fmt.Sprintf("Error: %s", escape(err.Error()))
	}
	return b.sendText(chatID, text)
}

func taskIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
