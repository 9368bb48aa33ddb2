// Package market talks to upstream market data APIs. Every client exposes the
// same two capabilities: the current price of a symbol and its most recent
// candles at a given Binance-style interval.
package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const userAgent = "crypto-alert-bot/1.0"

var ErrNoData = errors.New("no market data")

// Client is implemented by every upstream.
type Client interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
}

// Config selects and configures an upstream.
type Config struct {
	Source         string
	BinanceURL     string
	TradingViewURL string
	APIProKey      string
	Timeout        time.Duration
}

// New builds the client named by cfg.Source.
func New(cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", "binance":
		return NewBinanceClient(cfg.BinanceURL, cfg.Timeout), nil
	case "tradingview":
		return NewTradingViewClient(cfg.TradingViewURL, cfg.Timeout), nil
	case "coinpaprika":
		return NewPaprikaClient(cfg.APIProKey, cfg.Timeout), nil
	}
	return nil, errors.Errorf("unknown market source %q", cfg.Source)
}

// statusError is returned for non-2xx responses.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &statusError{Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func lastN(candles []types.Candle, n int) []types.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}
