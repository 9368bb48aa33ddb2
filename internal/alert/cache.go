package alert

import (
	"context"

	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// candleLimit is the number of candles a percent alert compares.
const candleLimit = 2

type candleKey struct {
	Symbol   string
	Interval string
}

type priceEntry struct {
	price decimal.Decimal
	err   error
}

type candleEntry struct {
	candles []types.Candle
	err     error
}

// passCache holds the market data of a single pass. Keys are registered by
// collect, then fetch fills every entry exactly once. The maps themselves
// are never written during fetch; each goroutine owns one entry.
type passCache struct {
	gateway     Gateway
	concurrency int
	prices      map[string]*priceEntry
	candleSets  map[candleKey]*candleEntry
}

func newPassCache(gateway Gateway, concurrency int) *passCache {
	return &passCache{
		gateway:     gateway,
		concurrency: concurrency,
		prices:      make(map[string]*priceEntry),
		candleSets:  make(map[candleKey]*candleEntry),
	}
}

// collect registers the keys the alerts depend on. Alerts with a window that
// does not resolve register nothing and are skipped at evaluation.
func (c *passCache) collect(alerts []types.Alert) {
	for _, a := range alerts {
		symbol := normalizeSymbol(a.Symbol)
		switch cond := a.Condition.(type) {
		case types.PriceCondition:
			if _, ok := c.prices[symbol]; !ok {
				c.prices[symbol] = &priceEntry{}
			}
		case types.PercentCondition:
			w, ok := types.ResolveWindow(cond.Window)
			if !ok {
				log.WithField("alert_id", a.ID).Warnf("Unknown window %q", cond.Window)
				continue
			}
			key := candleKey{Symbol: symbol, Interval: w.Interval}
			if _, ok := c.candleSets[key]; !ok {
				c.candleSets[key] = &candleEntry{}
			}
		}
	}
}

// fetch issues one gateway call per registered key. Failures are recorded on
// the entry and never retried within the pass.
func (c *passCache) fetch(ctx context.Context, m *Metrics) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for symbol, entry := range c.prices {
		symbol, entry := symbol, entry
		g.Go(func() error {
			defer recoverInto(&entry.err)
			entry.price, entry.err = c.gateway.CurrentPrice(ctx, symbol)
			if entry.err != nil {
				m.GatewayErrors.WithLabelValues("price").Inc()
				log.WithField("symbol", symbol).Warnf("Failed to fetch price: %v", entry.err)
			}
			return nil
		})
	}

	for key, entry := range c.candleSets {
		key, entry := key, entry
		g.Go(func() error {
			defer recoverInto(&entry.err)
			entry.candles, entry.err = c.gateway.Candles(ctx, key.Symbol, key.Interval, candleLimit)
			if entry.err != nil {
				m.GatewayErrors.WithLabelValues("candles").Inc()
				log.WithFields(log.Fields{"symbol": key.Symbol, "interval": key.Interval}).
					Warnf("Failed to fetch candles: %v", entry.err)
			}
			return nil
		})
	}

	_ = g.Wait()
}

// recoverInto turns a panicking gateway call into a failed entry.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("gateway panic: %v", r)
	}
}

func (c *passCache) price(symbol string) (decimal.Decimal, bool) {
	entry, ok := c.prices[symbol]
	if !ok || entry.err != nil {
		return decimal.Zero, false
	}
	return entry.price, true
}

func (c *passCache) candles(symbol, interval string) ([]types.Candle, bool) {
	entry, ok := c.candleSets[candleKey{Symbol: symbol, Interval: interval}]
	if !ok || entry.err != nil {
		return nil, false
	}
	return entry.candles, true
}
