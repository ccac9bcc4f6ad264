package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken    string        `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN            string        `mapstructure:"DB_DSN"`
	Environment      string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	Timezone         string        `mapstructure:"TIMEZONE"`
	ReminderInterval time.Duration `mapstructure:"REMINDER_INTERVAL"`
	VideoBaseURL     string        `mapstructure:"VIDEO_BASE_URL"`
}

// Load читает конфигурацию из .env (если есть) и переменных окружения.
// Второе значение сообщает, был ли найден .env файл.
func Load() (*Config, bool, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	envFileLoaded := godotenv.Load(".env") == nil

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Environment:   os.Getenv("ENV"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Timezone:      os.Getenv("TIMEZONE"),
		VideoBaseURL:  strings.TrimRight(os.Getenv("VIDEO_BASE_URL"), "/"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.VideoBaseURL == "" {
		cfg.VideoBaseURL = "https://meet.trainup.app/room"
	}

	cfg.ReminderInterval = time.Minute
	if raw := os.Getenv("REMINDER_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return nil, envFileLoaded, fmt.Errorf("REMINDER_INTERVAL must be a positive duration, got %q", raw)
		}
		cfg.ReminderInterval = interval
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, envFileLoaded, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" {
		return nil, envFileLoaded, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	if _, err := cfg.Location(); err != nil {
		return nil, envFileLoaded, err
	}

	return cfg, envFileLoaded, nil
}

// Location возвращает часовой пояс, в котором интерпретируются слоты
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RoomURL возвращает ссылку на комнату видеозвонка
func (c *Config) RoomURL(roomID string) string {
	return c.VideoBaseURL + "/" + roomID
}
