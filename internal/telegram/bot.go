package telegram

import (
	"context"

	"crypto-alert-bot/internal/commands"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, cmds *commands.Commands) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		commands: cmds,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopUpdates stops long polling and closes the updates channel.
func (b *Bot) StopUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = m.ParseMode
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// SendPhoto sends a PNG with a MarkdownV2 caption
func (b *Bot) SendPhoto(chatID int64, replyTo int, data []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: data,
	})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	photo.ReplyToMessageID = replyTo
	_, err := b.Bot.Send(photo)
	return errors.Wrapf(err, "could not send chart to chat %d", chatID)
}

// Send delivers an alert notification as plain text.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.SendMessage(Message{ChatID: chatID, Text: text})
}

// HandleUpdate answers a command message. It reports whether the update
// carried a known command.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) (bool, error) {
	reply, ok := Route(ctx, b.commands, u.Message)
	if !ok {
		return false, nil
	}

	if reply.Photo != nil {
		return true, b.SendPhoto(u.Message.Chat.ID, u.Message.MessageID, reply.Photo, reply.Caption)
	}
	return true, b.SendMessage(Message{
		ChatID:    u.Message.Chat.ID,
		MessageID: u.Message.MessageID,
		Text:      reply.Text,
	})
}
