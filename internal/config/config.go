package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"recipe-bot/internal/gigachat"
	"recipe-bot/internal/storage"
)

// MemoryURL selects the in-process store instead of PostgreSQL.
const MemoryURL = "memory://"

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	TelegramDebug bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`

	DBURL             string        `env:"DB_URL,required"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"1m"`

	GigaChatCredentials string        `env:"GIGACHAT_CREDENTIALS,required"`
	GigaChatScope       string        `env:"GIGACHAT_SCOPE" envDefault:"GIGACHAT_API_PERS"`
	GigaChatModel       string        `env:"GIGACHAT_MODEL" envDefault:"GigaChat"`
	GigaChatAuthURL     string        `env:"GIGACHAT_AUTH_URL" envDefault:"https://ngw.devices.sberbank.ru:9443/api/v2/oauth"`
	GigaChatAPIURL      string        `env:"GIGACHAT_API_URL" envDefault:"https://gigachat.devices.sberbank.ru/api/v1/chat/completions"`
	GigaChatInsecureTLS bool          `env:"GIGACHAT_INSECURE_TLS" envDefault:"true"`
	GigaChatTimeout     time.Duration `env:"GIGACHAT_TIMEOUT" envDefault:"60s"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LockTTL          time.Duration `env:"LOCK_TTL" envDefault:"2m"`
	RecipeRateLimit  int           `env:"RECIPE_RATE_LIMIT" envDefault:"5"`
	RecipeRateWindow time.Duration `env:"RECIPE_RATE_WINDOW" envDefault:"1m"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE" envDefault:"logs/recipebot.log"`
	LogProduction bool   `env:"LOG_PRODUCTION" envDefault:"false"`
}

// Load reads .env when present and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.GigaChatTimeout <= 0 {
		return nil, fmt.Errorf("GIGACHAT_TIMEOUT must be positive, got %s", cfg.GigaChatTimeout)
	}

	return &cfg, nil
}

func (c *Config) InMemory() bool {
	return strings.HasPrefix(c.DBURL, MemoryURL)
}

func (c *Config) Storage() storage.Config {
	return storage.Config{
		URL:             c.DBURL,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		ConnectTimeout:  c.DBConnectTimeout,
	}
}

func (c *Config) GigaChat() gigachat.Config {
	return gigachat.Config{
		Credentials: c.GigaChatCredentials,
		Scope:       c.GigaChatScope,
		Model:       c.GigaChatModel,
		AuthURL:     c.GigaChatAuthURL,
		APIURL:      c.GigaChatAPIURL,
		InsecureTLS: c.GigaChatInsecureTLS,
	}
}
