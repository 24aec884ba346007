package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recipe-bot/internal/bot"
	"recipe-bot/internal/config"
	"recipe-bot/internal/gigachat"
	"recipe-bot/internal/lock"
	"recipe-bot/internal/ratelimit"
	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
	"recipe-bot/internal/storage/memory"
	"recipe-bot/pkg/logger"
	"recipe-bot/pkg/redis"
)

// ENTRY POINT

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Инициализация логгера
	zapLogger, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Production: cfg.LogProduction,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Обработка сигналов завершения
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	deps := bot.Deps{
		Generator: gigachat.New(cfg.GigaChat(), zapLogger.Named("gigachat")),
		Locker:    lock.NewKeyed(),
		Limiter:   ratelimit.NewLocal(cfg.RecipeRateLimit, cfg.RecipeRateWindow),
	}

	// Инициализация хранилища
	if cfg.InMemory() {
		zapLogger.Warn("Using in-memory storage, data is lost on restart")
		deps.Stages = stage.NewTracker(memory.NewRepository[storage.Stage]())
		deps.Products = memory.NewRepository[storage.Product]()
		deps.Bookmarks = memory.NewRepository[storage.Bookmark]()
	} else {
		pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Storage(), zapLogger.Named("storage"))
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer pgStorage.Close()

		if err := pgStorage.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		deps.Stages = stage.NewTracker(pgStorage.Stages())
		deps.Products = pgStorage.Products()
		deps.Bookmarks = pgStorage.Bookmarks()
	}

	// Redis делает блокировки и лимиты общими для всех реплик
	if cfg.RedisAddr != "" {
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("init redis: %w", err)
		}

		deps.Locker = redis.NewLocker(redisClient, cfg.LockTTL, zapLogger.Named("redis"))
		deps.Limiter = redis.NewRateLimiter(redisClient, "recipe", cfg.RecipeRateLimit, cfg.RecipeRateWindow)
		zapLogger.Info("Redis connected", zap.String("addr", cfg.RedisAddr))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.TelegramDebug

	zapLogger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	tgBot := bot.New(botAPI, deps, bot.Options{RecipeTimeout: cfg.GigaChatTimeout}, zapLogger.Named("bot"))

	return tgBot.Start(ctx)
}
