package alert

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Store is the part of the alert store the engine needs.
type Store interface {
	ListActive(ctx context.Context) ([]types.Alert, error)
	Deactivate(ctx context.Context, alertID int64) error
}

// Gateway provides market data. Each call may fail independently.
type Gateway interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	PollInterval     time.Duration
	FetchConcurrency int
	Retry            RetryPolicy
	Metrics          *Metrics
}

// Engine evaluates active alerts against market data, one pass at a time.
type Engine struct {
	store       Store
	gateway     Gateway
	notifier    Notifier
	interval    time.Duration
	concurrency int
	retry       RetryPolicy
	metrics     *Metrics
}

// PassResult summarises one pass.
type PassResult struct {
	Alerts      int
	Fired       int
	Skipped     int
	Deactivated int
	Stuck       int
}

func NewEngine(store Store, gateway Gateway, notifier Notifier, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry.Attempts = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	return &Engine{
		store:       store,
		gateway:     gateway,
		notifier:    notifier,
		interval:    opts.PollInterval,
		concurrency: opts.FetchConcurrency,
		retry:       opts.Retry,
		metrics:     opts.Metrics,
	}
}

// RunPass lists the active alerts, fetches the market data they need once
// per key, fires the ones whose condition holds and finally retries failed
// deactivations. Only a failure to list alerts is returned.
func (e *Engine) RunPass(ctx context.Context) (PassResult, error) {
	start := time.Now()
	e.metrics.Passes.Inc()
	defer func() { e.metrics.PassDuration.Observe(time.Since(start).Seconds()) }()

	alerts, err := e.store.ListActive(ctx)
	if err != nil {
		e.metrics.PassFailures.Inc()
		return PassResult{}, errors.Wrap(err, "list active alerts")
	}

	res := PassResult{Alerts: len(alerts)}
	if len(alerts) == 0 {
		return res, nil
	}
	log.Debugf("Checking %d active alerts", len(alerts))

	cache := newPassCache(e.gateway, e.concurrency)
	cache.collect(alerts)
	cache.fetch(ctx, e.metrics)

	var retries retryQueue
	for _, a := range alerts {
		e.handle(ctx, a, cache, &retries, &res)
	}

	e.sweep(ctx, &retries, &res)

	log.Debugf("Alert pass completed: %d alerts, %d fired, %d skipped, %d stuck in %s",
		res.Alerts, res.Fired, res.Skipped, res.Stuck, time.Since(start))
	return res, nil
}

// handle evaluates a single alert and fires it. A panic here only loses this
// alert for the current pass.
func (e *Engine) handle(ctx context.Context, a types.Alert, cache *passCache, retries *retryQueue, res *PassResult) {
	defer func() {
		if r := recover(); r != nil {
			res.Skipped++
			e.metrics.Skipped.WithLabelValues("panic").Inc()
			log.Errorf("Recovered from panic evaluating alert %d: %v\n%s", a.ID, r, debug.Stack())
		}
	}()

	logger := log.WithFields(log.Fields{"alert_id": a.ID, "symbol": a.Symbol, "kind": a.Kind()})

	ev := evaluate(a, cache)
	if ev.skip != "" {
		res.Skipped++
		e.metrics.Skipped.WithLabelValues(ev.skip).Inc()
		logger.Debugf("Skipping alert: %s", ev.skip)
		return
	}
	if !ev.fire {
		return
	}

	res.Fired++
	e.metrics.Fired.WithLabelValues(a.Kind()).Inc()
	logger.Infof("Alert triggered: %s", strings.ReplaceAll(ev.text, "\n", " | "))

	if err := e.notifier.Send(ctx, a.ChatID, ev.text); err != nil {
		e.metrics.NotifyFailures.Inc()
		logger.Errorf("Failed to send alert notification: %v", err)
	}

	if err := e.store.Deactivate(ctx, a.ID); err != nil {
		logger.Warnf("Failed to deactivate alert, will retry at end of pass: %v", err)
		retries.push(a)
		return
	}
	res.Deactivated++
}

type evaluation struct {
	fire bool
	skip string
	text string
}

// evaluate dispatches on the condition variant.
func evaluate(a types.Alert, cache *passCache) evaluation {
	symbol := normalizeSymbol(a.Symbol)

	switch c := a.Condition.(type) {
	case types.PriceCondition:
		price, ok := cache.price(symbol)
		if !ok {
			return evaluation{skip: "no_data"}
		}
		if !priceTriggered(c, price) {
			return evaluation{}
		}
		return evaluation{fire: true, text: formatPriceAlert(a.ID, symbol, price, c)}

	case types.PercentCondition:
		w, ok := types.ResolveWindow(c.Window)
		if !ok {
			return evaluation{skip: "unknown_window"}
		}
		candles, ok := cache.candles(symbol, w.Interval)
		if !ok {
			return evaluation{skip: "no_data"}
		}
		move, reason := percentMove(candles)
		if reason != "" {
			return evaluation{skip: reason}
		}
		if !percentTriggered(c, move.Change) {
			return evaluation{}
		}
		return evaluation{fire: true, text: formatPercentAlert(a.ID, symbol, w.Name, move)}
	}

	return evaluation{skip: "unknown_kind"}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
