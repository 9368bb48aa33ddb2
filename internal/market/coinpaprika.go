package market

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// quote assets that CoinPaprika prices are treated as; ordered longest first
var usdQuotes = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "USD"}

// paprikaIntervals maps Binance tokens to a CoinPaprika historical interval
// and how many of its points make up one candle.
var paprikaIntervals = map[string]struct {
	Interval string
	Step     int
	Unit     time.Duration
}{
	"15m": {"15m", 1, 15 * time.Minute},
	"30m": {"30m", 1, 30 * time.Minute},
	"1h":  {"1h", 1, time.Hour},
	"4h":  {"1h", 4, time.Hour},
	"1d":  {"1d", 1, 24 * time.Hour},
}

// PaprikaClient prices Binance-style USD pairs through CoinPaprika. Candles
// are built from historical ticks, so open, high, low and close are equal.
type PaprikaClient struct {
	client *coinpaprika.Client
	now    func() time.Time

	mu    sync.Mutex
	coins map[string]string // base symbol -> coin id
}

func NewPaprikaClient(apiProKey string, timeout time.Duration) *PaprikaClient {
	httpClient := &http.Client{Timeout: timeout}
	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}
	return &PaprikaClient{client: client, now: time.Now, coins: make(map[string]string)}
}

func (c *PaprikaClient) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, err := c.coinID(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	ticker, err := c.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "coinpaprika ticker %s", id)
	}
	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return decimal.Zero, errors.Wrapf(ErrNoData, "coinpaprika ticker %s", id)
	}
	return decimal.NewFromFloat(*quote.Price), nil
}

func (c *PaprikaClient) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	iv, ok := paprikaIntervals[interval]
	if !ok {
		return nil, errors.Errorf("coinpaprika: unsupported interval %q", interval)
	}
	id, err := c.coinID(ctx, symbol)
	if err != nil {
		return nil, err
	}

	points := (limit + 1) * iv.Step
	opts := &coinpaprika.TickersHistoricalOptions{
		Quote:    "USD",
		Limit:    points,
		Interval: iv.Interval,
		Start:    c.now().Add(-time.Duration(points) * iv.Unit),
	}
	ticks, err := c.client.Tickers.GetHistoricalTickersByID(id, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "coinpaprika history %s %s", id, interval)
	}

	var valid []*coinpaprika.TickerHistorical
	for _, t := range ticks {
		if t != nil && t.Price != nil && t.Timestamp != nil {
			valid = append(valid, t)
		}
	}

	// walk back from the newest tick, one candle every Step points
	var candles []types.Candle
	for i := len(valid) - 1; i >= 0; i -= iv.Step {
		p := decimal.NewFromFloat(*valid[i].Price)
		candles = append([]types.Candle{{
			OpenTime: valid[i].Timestamp.UTC(),
			Open:     p,
			High:     p,
			Low:      p,
			Close:    p,
		}}, candles...)
	}
	return lastN(candles, limit), nil
}

// coinID resolves BTCUSDT to a CoinPaprika id such as btc-bitcoin.
func (c *PaprikaClient) coinID(ctx context.Context, symbol string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base, err := baseAsset(symbol)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	id, ok := c.coins[base]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	result, err := c.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      base,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return "", errors.Wrapf(err, "coinpaprika search %s", base)
	}
	for _, coin := range result.Currencies {
		if coin.ID != nil && coin.Symbol != nil && strings.EqualFold(*coin.Symbol, base) {
			id = *coin.ID
			break
		}
	}
	if id == "" {
		return "", errors.Wrapf(ErrNoData, "coinpaprika: no coin for %s", base)
	}

	log.Debugf("coinpaprika: %s resolved to %s", symbol, id)
	c.mu.Lock()
	c.coins[base] = id
	c.mu.Unlock()
	return id, nil
}

func baseAsset(symbol string) (string, error) {
	symbol = strings.ToUpper(symbol)
	for _, q := range usdQuotes {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return strings.TrimSuffix(symbol, q), nil
		}
	}
	return "", errors.Errorf("coinpaprika: %s is not a USD pair", symbol)
}
