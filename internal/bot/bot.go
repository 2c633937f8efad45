// Package bot connects the command interpreter to Telegram.
package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Run drives the long-polling update loop until the updates channel
// closes. Each message gets exactly one reply, except the bot's own.
func Run(api *tgbotapi.BotAPI, interp *Interpreter, log *zap.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	log.Info("bot is running", zap.String("username", api.Self.UserName))
	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			continue
		}
		msg := update.Message
		reply := interp.Handle(context.Background(), Inbound{
			SenderID:    strconv.FormatInt(msg.From.ID, 10),
			Text:        messageText(msg),
			Attachments: collectAttachments(api, msg, log),
		})
		if reply == "" {
			continue
		}
		if _, err := api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
			log.Error("send reply", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		}
	}
}

// messageText falls back to the caption for photo/document messages.
func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// collectAttachments resolves attached files to hosted URLs plus their
// declared content type. Telegram sends several sizes per photo; only the
// largest is kept.
func collectAttachments(api *tgbotapi.BotAPI, msg *tgbotapi.Message, log *zap.Logger) []Attachment {
	var out []Attachment
	if msg.Document != nil {
		url, err := api.GetFileDirectURL(msg.Document.FileID)
		if err != nil {
			log.Error("resolve document url", zap.Error(err))
		} else {
			out = append(out, Attachment{URL: url, ContentType: msg.Document.MimeType})
		}
	}
	if n := len(msg.Photo); n > 0 {
		url, err := api.GetFileDirectURL(msg.Photo[n-1].FileID)
		if err != nil {
			log.Error("resolve photo url", zap.Error(err))
		} else {
			out = append(out, Attachment{URL: url, ContentType: "image/jpeg"})
		}
	}
	return out
}
