package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type stubMarket struct{}

func (stubMarket) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.NewFromInt(42), nil
}

func (stubMarket) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	return nil, errors.New("upstream status 502")
}

func commandMessage(text string, userID, chatID int64) *tgbotapi.Message {
	cmdLen := strings.IndexByte(text, ' ')
	if cmdLen < 0 {
		cmdLen = len(text)
	}
	return &tgbotapi.Message{
		MessageID: 7,
		Text:      text,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func newTestCommands(t *testing.T) *commands.Commands {
	t.Helper()
	store, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return commands.New(store, stubMarket{})
}

func TestRoute(t *testing.T) {
	cmds := newTestCommands(t)
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"/start", "/set_pct <SYMBOL> <PERCENT> <WINDOW>"},
		{"/help@crypto_alert_bot", "/delete <ID>"},
		{"/price BTCUSDT", "BTCUSDT: 42.0000"},
		{"/set BTCUSDT >= 65000", "Alert #1 created"},
		{"/set_pct BTCUSDT 5 1h", "Alert #2 created"},
		{"/list", "#1: BTCUSDT >= 65000"},
		{"/delete 1", "Alert #1 deleted"},
		{"/chart BTCUSDT", "Failed to build chart"},
	}

	for _, tt := range tests {
		reply, ok := Route(ctx, cmds, commandMessage(tt.text, 1, 10))
		if !ok {
			t.Fatalf("%s: not routed", tt.text)
		}
		if !strings.Contains(reply.Text, tt.want) {
			t.Errorf("%s: reply %q does not contain %q", tt.text, reply.Text, tt.want)
		}
	}
}

func TestRouteIgnoresUnknown(t *testing.T) {
	cmds := newTestCommands(t)

	if _, ok := Route(context.Background(), cmds, commandMessage("/volume BTC", 1, 1)); ok {
		t.Fatal("unknown command should not be routed")
	}
	if _, ok := Route(context.Background(), cmds, &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}); ok {
		t.Fatal("plain text should not be routed")
	}
	if _, ok := Route(context.Background(), cmds, nil); ok {
		t.Fatal("nil message should not be routed")
	}
}

func TestRouteKeepsAlertsPerUser(t *testing.T) {
	cmds := newTestCommands(t)
	ctx := context.Background()

	Route(ctx, cmds, commandMessage("/set ETHUSDT <= 2000", 1, 10))

	reply, _ := Route(ctx, cmds, commandMessage("/list", 2, 20))
	if reply.Text != "You have no alerts." {
		t.Fatalf("unexpected list %q", reply.Text)
	}
	reply, _ = Route(ctx, cmds, commandMessage("/delete 1", 2, 20))
	if !strings.Contains(reply.Text, "not yours") {
		t.Fatalf("unexpected delete reply %q", reply.Text)
	}
}
