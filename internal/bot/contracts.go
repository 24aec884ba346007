package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type StageTracker interface {
	Current(ctx context.Context, user int64) (stage.State, error)
	Set(ctx context.Context, user int64, action stage.Action) error
}

type ProductStore interface {
	Create(ctx context.Context, fields storage.Fields) error
	Read(ctx context.Context, user int64) ([]storage.Product, error)
	Delete(ctx context.Context, pk any) error
}

type BookmarkStore interface {
	Create(ctx context.Context, fields storage.Fields) error
	Read(ctx context.Context, user int64) ([]storage.Bookmark, error)
	Delete(ctx context.Context, pk any) error
}

type RecipeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Locker serializes the handling of one user's updates.
type Locker interface {
	Lock(ctx context.Context, user int64) (unlock func(), err error)
}

type RateLimiter interface {
	Allow(ctx context.Context, user int64) (bool, error)
}
