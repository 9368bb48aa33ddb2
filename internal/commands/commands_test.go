package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/types"

	"github.com/shopspring/decimal"
)

type fakeMarket struct {
	price       decimal.Decimal
	candles     []types.Candle
	err         error
	candleCalls int
}

func (m *fakeMarket) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return m.price, m.err
}

func (m *fakeMarket) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	m.candleCalls++
	return m.candles, m.err
}

func newTestCommands(t *testing.T, m *fakeMarket) (*Commands, *database.Store) {
	t.Helper()
	store, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, m), store
}

func TestParseSet(t *testing.T) {
	symbol, cond, err := ParseSet("btcusdt >= 65000,5")
	if err != nil {
		t.Fatal(err)
	}
	if symbol != "BTCUSDT" || cond.Comparator != types.OpAbove || !cond.Target.Equal(decimal.RequireFromString("65000.5")) {
		t.Fatalf("got %s %+v", symbol, cond)
	}

	errorCases := map[string]string{
		"BTCUSDT >= ":             "Format: /set",
		"BTC >= 1":                "Invalid symbol",
		"BTCUSDT > 1":             "OP must be",
		"BTCUSDT >= abc":          "PRICE must be a number",
		"BTC-USDT >= 1":           "Invalid symbol",
		"BTCUSDT >= 1 2":          "Format: /set",
		"VERYLONGSYMBOL123 >= 1": "Invalid symbol",
	}
	for args, want := range errorCases {
		_, _, err := ParseSet(args)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("ParseSet(%q) = %v, want %q", args, err, want)
		}
	}
}

func TestParseSetPct(t *testing.T) {
	symbol, cond, err := ParseSetPct("ETHUSDT 2,5% 4H")
	if err != nil {
		t.Fatal(err)
	}
	if symbol != "ETHUSDT" || cond.Window != "4h" || !cond.Target.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("got %s %+v", symbol, cond)
	}

	errorCases := map[string]string{
		"ETHUSDT 5":     "Format: /set_pct",
		"ETHUSDT x 1h":  "PERCENT must be a number",
		"ETHUSDT 0 1h":  "PERCENT must be positive",
		"ETHUSDT -3 1h": "PERCENT must be positive",
		"ETHUSDT 5 2h":  "Unknown window 2h",
	}
	for args, want := range errorCases {
		_, _, err := ParseSetPct(args)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("ParseSetPct(%q) = %v, want %q", args, err, want)
		}
	}
}

func TestParseDelete(t *testing.T) {
	if id, err := ParseDelete("#42"); err != nil || id != 42 {
		t.Fatalf("got %d, %v", id, err)
	}
	if _, err := ParseDelete("abc"); err == nil || !strings.Contains(err.Error(), "ID must be a number") {
		t.Fatalf("got %v", err)
	}
	if _, err := ParseDelete(""); err == nil || !strings.Contains(err.Error(), "Format: /delete") {
		t.Fatalf("got %v", err)
	}
}

func TestSetListDelete(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCommands(t, &fakeMarket{})

	reply := c.Set(ctx, Request{UserID: 1, ChatID: 10, Args: "BTCUSDT >= 65000"})
	if reply != "✅ Alert #1 created: BTCUSDT >= 65000" {
		t.Fatalf("unexpected reply %q", reply)
	}
	reply = c.SetPct(ctx, Request{UserID: 1, ChatID: 10, Args: "ETHUSDT 5 1h"})
	if reply != "✅ Alert #2 created: ETHUSDT ±5% over 1h" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := c.Set(ctx, Request{UserID: 1, ChatID: 10, Args: "BTCUSDT => 1"}); !strings.Contains(reply, "OP must be") {
		t.Fatalf("unexpected reply %q", reply)
	}

	if err := store.Deactivate(ctx, 1); err != nil {
		t.Fatal(err)
	}

	list := c.List(ctx, 1)
	lines := strings.Split(list, "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected list %q", list)
	}
	if lines[0] != "Your alerts (2):" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "#2: ETHUSDT ±5% / 1h | active") {
		t.Errorf("unexpected line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "#1: BTCUSDT >= 65000 | fired") {
		t.Errorf("unexpected line %q", lines[2])
	}
	if got := c.List(ctx, 2); got != "You have no alerts." {
		t.Errorf("unexpected list for other user %q", got)
	}

	if reply := c.Delete(ctx, Request{UserID: 2, Args: "2"}); !strings.Contains(reply, "not yours") {
		t.Fatalf("foreign delete: %q", reply)
	}
	if reply := c.Delete(ctx, Request{UserID: 1, Args: "2"}); reply != "🗑️ Alert #2 deleted" {
		t.Fatalf("own delete: %q", reply)
	}
	if reply := c.Delete(ctx, Request{UserID: 1, Args: "2"}); !strings.Contains(reply, "No alert") {
		t.Fatalf("repeated delete: %q", reply)
	}
}

func TestPrice(t *testing.T) {
	m := &fakeMarket{price: decimal.RequireFromString("65000.5")}
	c, _ := newTestCommands(t, m)

	if got := c.Price(context.Background(), "btcusdt"); got != "BTCUSDT: 65,000.50" {
		t.Fatalf("got %q", got)
	}
	if got := c.Price(context.Background(), ""); !strings.Contains(got, "Usage: /price") {
		t.Fatalf("got %q", got)
	}

	m.err = errors.New("upstream status 400")
	if got := c.Price(context.Background(), "BTCUSDT"); !strings.Contains(got, "Failed to get price") {
		t.Fatalf("got %q", got)
	}
}

func TestChartRendersAndCaches(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var candles []types.Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, types.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Close:    decimal.NewFromInt(int64(100 + i)),
		})
	}
	m := &fakeMarket{candles: candles}
	c, _ := newTestCommands(t, m)

	data, caption, err := c.Chart(context.Background(), "ethusdt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("expected PNG data")
	}
	if !strings.Contains(caption, "ETHUSDT") || !strings.Contains(caption, "+9\\.00%") {
		t.Fatalf("unexpected caption %q", caption)
	}

	if _, _, err := c.Chart(context.Background(), "ETHUSDT 1h"); err != nil {
		t.Fatal(err)
	}
	if m.candleCalls != 1 {
		t.Fatalf("expected cached chart, got %d candle calls", m.candleCalls)
	}
}

func TestChartUsage(t *testing.T) {
	c, _ := newTestCommands(t, &fakeMarket{})

	data, caption, err := c.Chart(context.Background(), "ETHUSDT 2h")
	if err != nil || data != nil || !strings.Contains(caption, "Unknown window") {
		t.Fatalf("got %v %q %v", data != nil, caption, err)
	}
	data, caption, err = c.Chart(context.Background(), "ETHUSDT")
	if err != nil || data != nil || !strings.Contains(caption, "Not enough market data") {
		t.Fatalf("got %v %q %v", data != nil, caption, err)
	}
}

func TestChartCacheExpires(t *testing.T) {
	cache := newChartCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.set("BTCUSDT/1h", []byte{1}, "caption", chartTTL)
	if _, ok := cache.get("BTCUSDT/1h"); !ok {
		t.Fatal("expected cache hit")
	}
	now = now.Add(chartTTL)
	if _, ok := cache.get("BTCUSDT/1h"); ok {
		t.Fatal("expected expired entry")
	}
}

func TestHelpIsPlainText(t *testing.T) {
	help := Help()
	if strings.Contains(help, "%") {
		t.Fatalf("help text carries a format verb: %q", help)
	}
	if !strings.Contains(help, "/set_pct <SYMBOL> <PERCENT> <WINDOW> - alert on a percent move over a window") {
		t.Fatalf("unexpected help %q", help)
	}
}
