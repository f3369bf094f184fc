package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbTogglePrefix  = "toggle:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

// parseCallback splits callback data into its action prefix and task id.
func parseCallback(data string) (prefix, id string, ok bool) {
	for _, p := range []string{cbTogglePrefix, cbDeletePrefix, cbConfirmPrefix, cbCancelPrefix} {
		if strings.HasPrefix(data, p) {
			return p, strings.TrimPrefix(data, p), true
		}
	}
	return "", "", false
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.WarnContext(ctx, "callback ack", slog.Any("error", err))
	}

	prefix, id, ok := parseCallback(cb.Data)
	if !ok {
		return nil
	}
	chatID := cb.Message.Chat.ID
	b.logger.InfoContext(ctx, "callback",
		slog.Int64("user", cb.From.ID),
		slog.String("action", strings.TrimSuffix(prefix, ":")),
		slog.String("task", id),
	)

	switch prefix {
	case cbTogglePrefix:
		return b.toggleAndReport(chatID, id)
	case cbDeletePrefix:
		return b.askDeleteConfirmation(chatID, id)
	case cbConfirmPrefix:
		return b.deleteAndReport(chatID, id)
	default:
		return b.sendText(chatID, "Okay, keeping it.")
	}
}

func (b *Bot) askDeleteConfirmation(chatID int64, id string) error {
	task, err := b.tasks.Get(id)
	if err != nil {
		return b.replyError(chatID, "/delete", err)
	}
	text := fmt.Sprintf("Delete task «%s»?", escape(task.Title))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(task.ID))
}
