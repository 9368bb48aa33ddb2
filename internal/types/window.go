package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Window is a symbolic time span used by percent alerts.
type Window struct {
	Name     string
	Interval string // Binance kline interval
	Seconds  int64
}

var windows = []Window{
	{Name: "15m", Interval: "15m", Seconds: 15 * 60},
	{Name: "30m", Interval: "30m", Seconds: 30 * 60},
	{Name: "1h", Interval: "1h", Seconds: 60 * 60},
	{Name: "4h", Interval: "4h", Seconds: 4 * 60 * 60},
	{Name: "1d", Interval: "1d", Seconds: 24 * 60 * 60},
}

// ResolveWindow looks up a window by name, ignoring case and surrounding spaces.
func ResolveWindow(name string) (Window, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, w := range windows {
		if w.Name == name {
			return w, true
		}
	}
	return Window{}, false
}

// WindowNames lists the accepted window names in ascending order.
func WindowNames() []string {
	names := make([]string, 0, len(windows))
	for _, w := range windows {
		names = append(names, w.Name)
	}
	return names
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return time.Duration(w.Seconds) * time.Second
}

// Candle is one OHLC bar. Slices of candles are ordered oldest first.
type Candle struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
}
