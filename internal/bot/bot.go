package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Deps struct {
	Stages    StageTracker
	Products  ProductStore
	Bookmarks BookmarkStore
	Generator RecipeGenerator
	Locker    Locker
	Limiter   RateLimiter
}

type Options struct {
	// RecipeTimeout bounds a single generator call.
	RecipeTimeout time.Duration
}

type Bot struct {
	api    API
	logger *zap.Logger

	stages    StageTracker
	products  ProductStore
	bookmarks BookmarkStore
	generator RecipeGenerator
	locker    Locker
	limiter   RateLimiter

	recipeTimeout time.Duration
}

func New(api API, deps Deps, opts Options, logger *zap.Logger) *Bot {
	if opts.RecipeTimeout <= 0 {
		opts.RecipeTimeout = time.Minute
	}
	return &Bot{
		api:           api,
		logger:        logger,
		stages:        deps.Stages,
		products:      deps.Products,
		bookmarks:     deps.Bookmarks,
		generator:     deps.Generator,
		locker:        deps.Locker,
		limiter:       deps.Limiter,
		recipeTimeout: opts.RecipeTimeout,
	}
}

// Start receives updates until ctx is done and handles each one in its own
// goroutine. On shutdown it stops polling and waits for handlers in flight.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	// Handlers run to completion even after shutdown begins.
	handlerCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot, waiting for handlers in flight")
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.logger.Warn("Updates channel closed")
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(handlerCtx, update)
			}()
		}
	}
}

// HandleUpdate processes one update while holding the sender's lock. Errors and
// panics are logged and answered with a message, never propagated.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	user, chatID, ok := sender(update)
	if !ok {
		b.logger.Debug("Skipping update without sender", zap.Int("update_id", update.UpdateID))
		return
	}

	log := b.logger.With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", user),
		zap.Int64("chat_id", chatID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
			b.sendError(chatID, msgInternalError)
		}
	}()

	unlock, err := b.locker.Lock(ctx, user)
	if err != nil {
		log.Error("Failed to acquire user lock", zap.Error(err))
		b.sendError(chatID, msgInternalError)
		return
	}
	defer unlock()

	switch {
	case update.CallbackQuery != nil:
		err = b.processCallback(ctx, update.CallbackQuery, user, chatID)
	default:
		err = b.processMessage(ctx, update.Message, user, chatID)
	}

	if err != nil {
		log.Error("Failed to handle update", zap.Error(err))
		b.sendError(chatID, userMessage(err))
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message, user, chatID int64) error {
	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		return b.handleCommand(ctx, user, chatID, msg.Command())
	}
	return b.handleText(ctx, user, chatID, msg.Text)
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user, chatID int64) error {
	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", callback.Data))

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.String("callback_id", callback.ID),
			zap.Error(err))
	}

	data, err := parseCallback(callback.Data)
	if err != nil {
		return err
	}
	return b.handleCallback(ctx, user, chatID, data, callback.Message)
}

// sender returns the user and the chat to answer in.
func sender(update tgbotapi.Update) (user, chatID int64, ok bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		user = update.CallbackQuery.From.ID
		chatID = user
		if m := update.CallbackQuery.Message; m != nil && m.Chat != nil {
			chatID = m.Chat.ID
		}
		return user, chatID, true
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		return update.Message.From.ID, update.Message.Chat.ID, true
	default:
		return 0, 0, false
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	_ = b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+text))
}
