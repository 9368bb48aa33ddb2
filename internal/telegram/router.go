package telegram

import (
	"context"

	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Route runs the command in m. It reports false for messages that are not
// commands this bot knows.
func Route(ctx context.Context, cmds *commands.Commands, m *tgbotapi.Message) (Reply, bool) {
	if m == nil || !m.IsCommand() {
		return Reply{}, false
	}
	log.Debugf("received command: %s", m.Command())

	req := commands.Request{
		ChatID: m.Chat.ID,
		UserID: m.Chat.ID,
		Args:   m.CommandArguments(),
	}
	if m.From != nil {
		req.UserID = m.From.ID
	}

	switch m.Command() {
	case "start", "help":
		return Reply{Text: commands.Help()}, true
	case "price":
		return Reply{Text: cmds.Price(ctx, req.Args)}, true
	case "set":
		return Reply{Text: cmds.Set(ctx, req)}, true
	case "set_pct":
		return Reply{Text: cmds.SetPct(ctx, req)}, true
	case "list":
		return Reply{Text: cmds.List(ctx, req.UserID)}, true
	case "delete":
		return Reply{Text: cmds.Delete(ctx, req)}, true
	case "chart":
		chartData, caption, err := cmds.Chart(ctx, req.Args)
		if err != nil {
			log.Error(err)
			return Reply{Text: translation.Translate("Failed to build chart. Please try again later.")}, true
		}
		if chartData == nil {
			return Reply{Text: caption}, true
		}
		return Reply{Photo: chartData, Caption: caption}, true
	}

	return Reply{}, false
}
