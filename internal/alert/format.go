package alert

import (
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/translation"

	"github.com/shopspring/decimal"
)

func formatPriceAlert(id int64, symbol string, price decimal.Decimal, c types.PriceCondition) string {
	return translation.Translate("🔔 #%d %s: current %s %s %s",
		id, symbol, price.String(), c.Comparator, c.Target.String())
}

func formatPercentAlert(id int64, symbol, window string, m move) string {
	sign := "▼"
	if m.Up() {
		sign = "▲"
	}
	return translation.Translate("🔔 #%d %s %s %s%% over %s\nPrice: %s (was %s)",
		id, symbol, sign, m.Change.StringFixed(2), window, m.Last.StringFixed(8), m.Prev.StringFixed(8))
}
