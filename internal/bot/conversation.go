package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDue
	stagePriority
	stageCategory
)

type conversationState struct {
	stage conversationStage
	draft model.TaskDraft
}

var errBadDate = errors.New("unrecognized date")

// startNewTask opens the step-by-step dialog. "/new buy milk" skips the
// title step.
func (b *Bot) startNewTask(_ context.Context, msg *tgbotapi.Message) error {
	state := &conversationState{stage: stageTitle}
	title := ""
	if msg.IsCommand() {
		title = strings.TrimSpace(msg.CommandArguments())
	}
	b.setConversation(msg.From.ID, state)

	if title == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
	}
	state.draft.Title = title
	state.stage = stageDue
	return b.sendWithReplyMarkup(msg.Chat.ID, duePrompt, dueKeyboard())
}

const duePrompt = "⏰ <b>Step 2:</b> when is it due? Send <code>2026-11-30</code>, today or tomorrow."

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		}
		state.draft.Title = text
		state.stage = stageDue
		return b.sendWithReplyMarkup(msg.Chat.ID, duePrompt, dueKeyboard())

	case stageDue:
		if !isSkipInput(text) {
			due, err := parseDue(text, b.tasks.Now())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2026-11-30</code>, today, tomorrow or Skip.", dueKeyboard())
			}
			state.draft.DueDate = &due
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🚦 <b>Step 3:</b> priority?", priorityKeyboard())

	case stagePriority:
		if !isSkipInput(text) {
			p, err := model.ParsePriority(stripIcon(text))
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of low, medium, high or urgent.", priorityKeyboard())
			}
			state.draft.Priority = p
		}
		state.stage = stageCategory
		categories := b.tasks.Categories()
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 <b>Step 4:</b> category?", categoryKeyboard(categories))

	case stageCategory:
		categories := b.tasks.Categories()
		if !isSkipInput(text) {
			cat, ok := matchCategory(categories, text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "No such category. Pick one from the keyboard or Skip.", categoryKeyboard(categories))
			}
			state.draft.Category = cat.ID
		}
		b.clearConversation(msg.From.ID)
		return b.finishNewTask(ctx, msg.Chat.ID, state.draft)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Try again with /new.")
	}
}

func (b *Bot) finishNewTask(_ context.Context, chatID int64, draft model.TaskDraft) error {
	if err := draft.Validate(); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the task: %s", escape(err.Error())))
	}

	task := b.tasks.Add(draft)
	b.logger.Info("task created", slog.String("id", task.ID), slog.String("source", "telegram"))

	category := b.tasks.ResolveCategory(task.Category)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format("2006-01-02")))
	}
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s", escape(category.Name)))

	if err := b.sendText(chatID, summary.String()); err != nil {
		return err
	}
	return b.sendTaskList(chatID, model.ViewAll)
}

// parseDue reads a due date as a calendar day in now's location.
func parseDue(text string, now time.Time) (time.Time, error) {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch strings.ToLower(stripIcon(text)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	due, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return due, nil
}

// matchCategory finds a category by id or by name, ignoring case.
func matchCategory(categories []model.Category, text string) (model.Category, bool) {
	want := strings.ToLower(stripIcon(text))
	for _, c := range categories {
		if strings.ToLower(c.ID) == want || strings.ToLower(strings.TrimSpace(c.Name)) == want {
			return c, true
		}
	}
	return model.Category{}, false
}
