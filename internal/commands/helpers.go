package commands

import (
	"context"
	"strings"

	"crypto-alert-bot/internal/market"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/translation"
)

// Store is the part of the alert store the command handlers use.
type Store interface {
	CreateAlert(ctx context.Context, alert *types.Alert) error
	ListByUser(ctx context.Context, userID int64) ([]types.Alert, error)
	Delete(ctx context.Context, alertID, userID int64) (bool, error)
}

// Commands holds the dependencies of the chat commands.
type Commands struct {
	store  Store
	market market.Client
	charts *chartCache
}

// Request is a parsed chat command.
type Request struct {
	UserID int64
	ChatID int64
	Args   string
}

func New(store Store, client market.Client) *Commands {
	return &Commands{
		store:  store,
		market: client,
		charts: newChartCache(),
	}
}

// Help lists the available commands.
func Help() string {
	return translation.Translate("Hi! I am a crypto alert bot. Available commands:\n\n" +
		"/price <SYMBOL> - current price (e.g. /price BTCUSDT)\n" +
		"/set <SYMBOL> <OP> <PRICE> - price alert (e.g. /set BTCUSDT >= 65000)\n" +
		"/set_pct <SYMBOL> <PERCENT> <WINDOW> - alert on a percent move over a window (e.g. /set_pct BTCUSDT 5 1h)\n" +
		"/list - your alerts\n" +
		"/delete <ID> - delete an alert\n" +
		"/chart <SYMBOL> [WINDOW] - price chart (e.g. /chart ETHUSDT 4h)")
}

func fields(args string) []string {
	return strings.Fields(args)
}

// parseSymbol upper-cases s and validates it.
func parseSymbol(s string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	return symbol, types.ValidSymbol(symbol)
}

func invalidSymbol() string {
	return translation.Translate("Invalid symbol. Example: BTCUSDT")
}
