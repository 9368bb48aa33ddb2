package telegram

import (
	"crypto-alert-bot/internal/commands"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Bot telegram interaction client
type Bot struct {
	Bot      *tgbotapi.BotAPI
	Config   BotConfig
	commands *commands.Commands
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	ParseMode string
}

// Reply is the answer to a command: either text or a chart with a caption.
type Reply struct {
	Text    string
	Photo   []byte
	Caption string
}
