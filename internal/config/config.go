package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Telegram refuses messages longer than this.
const TelegramMessageLimit = 4096

type Config struct {
	BotToken string
	AdminID  int64

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	StoreTimeout time.Duration

	ServerPort     string
	WebhookBaseURL string
	WebhookSecret  string
	PollTimeout    int

	JWTSecret         string
	AdminPasswordHash string

	ExportChunkSize int
}

// Load reads the optional dotenv file and then the environment. Variables
// already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		BotToken:          getEnv("TELEGRAM_BOT_TOKEN", ""),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "contest"),
		SQLitePath:        getEnv("SQLITE_PATH", "contest.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		WebhookBaseURL:    getEnv("WEBHOOK_BASE_URL", ""),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		JWTSecret:         getEnv("JWT_SECRET", "super-secret-key-change-me"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	var err error
	if raw := getEnv("ADMIN_ID", ""); raw != "" {
		if cfg.AdminID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("ADMIN_ID: %w", err)
		}
	}
	if cfg.StoreTimeout, err = time.ParseDuration(getEnv("STORE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}
	if cfg.PollTimeout, err = strconv.Atoi(getEnv("POLL_TIMEOUT", "30")); err != nil {
		return nil, fmt.Errorf("POLL_TIMEOUT: %w", err)
	}
	if cfg.ExportChunkSize, err = strconv.Atoi(getEnv("EXPORT_CHUNK_SIZE", "4000")); err != nil {
		return nil, fmt.Errorf("EXPORT_CHUNK_SIZE: %w", err)
	}
	if cfg.ExportChunkSize <= 0 || cfg.ExportChunkSize > TelegramMessageLimit {
		cfg.ExportChunkSize = TelegramMessageLimit
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.AdminID == 0 {
		errs = append(errs, errors.New("ADMIN_ID is required"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresDSN builds the libpq style connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
