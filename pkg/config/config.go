package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Telegram TelegramConfig
	Storage  StorageConfig
	Gateway  GatewayConfig
	Bot      BotConfig
	Logger   LoggerConfig
}

type TelegramConfig struct {
	Token string
}

type StorageConfig struct {
	DataFile string
}

type GatewayConfig struct {
	URL     string
	Timeout time.Duration
}

type BotConfig struct {
	// IBANShortcut keeps the historical behavior of treating any message
	// tail that passes the IBAN checksum as an IBAN update, overriding the
	// leading command token.
	IBANShortcut bool
}

type LoggerConfig struct {
	Level string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Storage: StorageConfig{
			DataFile: getEnv("DATA_FILE", "data/declarations.json"),
		},
		Gateway: GatewayConfig{
			URL:     os.Getenv("GATEWAY_URL"),
			Timeout: time.Duration(getEnvInt("GATEWAY_TIMEOUT", 30)) * time.Second,
		},
		Bot: BotConfig{
			IBANShortcut: getEnvBool("IBAN_SHORTCUT", true),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to the default on a malformed value: a zero
// timeout would disable the HTTP client timeout entirely.
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
