package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// SubscriberStore keeps the chats that receive scheduled reports.
type SubscriberStore interface {
	Upsert(ctx context.Context, telegramID, chatID int64, firstName, username string) (*model.Subscriber, error)
	Remove(ctx context.Context, telegramID int64) (bool, error)
	ListAll(ctx context.Context) ([]model.Subscriber, error)
}

// Bot translates chat commands into task service calls.
type Bot struct {
	api         telegramAPI
	tasks       *service.TaskService
	reminders   *service.ReminderService
	subscribers SubscriberStore
	logger      *slog.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
	// listings holds the task ids of the last list shown in each chat, so
	// that /done and /delete can refer to tasks by number.
	listings map[int64][]string
}

// New authorizes against the Telegram API with token.
func New(token string, tasks *service.TaskService, reminders *service.ReminderService, subscribers SubscriberStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Info("bot authorized", slog.String("account", api.Self.UserName))
	return newBot(api, tasks, reminders, subscribers, logger), nil
}

func newBot(api telegramAPI, tasks *service.TaskService, reminders *service.ReminderService, subscribers SubscriberStore, logger *slog.Logger) *Bot {
	return &Bot{
		api:           api,
		tasks:         tasks,
		reminders:     reminders,
		subscribers:   subscribers,
		logger:        logger,
		conversations: make(map[int64]*conversationState),
		listings:      make(map[int64][]string),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	stopWatch := context.AfterFunc(ctx, b.api.StopReceivingUpdates)
	defer stopWatch()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handle callback", slog.Any("error", err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("handle message", slog.Any("error", err))
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.logger.Info("command",
			slog.Int64("user", msg.From.ID),
			slog.String("command", msg.Command()),
			slog.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Send /new to add a task or /help for the command list.")
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTask(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(msg.Chat.ID, model.ViewAll)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) setListing(chatID int64, ids []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listings[chatID] = ids
}

func (b *Bot) listing(chatID int64) ([]string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids, ok := b.listings[chatID]
	return ids, ok
}
