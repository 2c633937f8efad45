package main

import (
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"declaration-bot/internal/bot"
	"declaration-bot/internal/declaration"
	"declaration-bot/internal/gateway"
	"declaration-bot/internal/storage"
	"declaration-bot/pkg/config"
	"declaration-bot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	if cfg.Telegram.Token == "" {
		zl.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.Gateway.URL == "" {
		zl.Fatal("GATEWAY_URL is required")
	}

	store, err := storage.Open(cfg.Storage.DataFile, zl)
	if err != nil {
		zl.Fatal("open record store", zap.String("path", cfg.Storage.DataFile), zap.Error(err))
	}

	gw := gateway.NewHTTP(cfg.Gateway.URL, cfg.Gateway.Timeout)
	svc := declaration.NewService(store, gw, zl)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		zl.Fatal("telegram auth", zap.Error(err))
	}

	interp := bot.NewInterpreter(svc, strconv.FormatInt(api.Self.ID, 10), cfg.Bot.IBANShortcut, zl)
	bot.Run(api, interp, zl)
}
