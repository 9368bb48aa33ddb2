package commands

import (
	"context"
	"fmt"

	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	log "github.com/sirupsen/logrus"
)

func (c *Commands) Price(ctx context.Context, args string) string {
	log.Debugf("processing command /price with argument :%s", args)

	parts := fields(args)
	if len(parts) != 1 {
		return translation.Translate("Usage: /price <SYMBOL> (e.g. /price BTCUSDT)")
	}
	symbol, ok := parseSymbol(parts[0])
	if !ok {
		return invalidSymbol()
	}

	price, err := c.market.CurrentPrice(ctx, symbol)
	if err != nil {
		log.WithField("symbol", symbol).Errorf("command /price: %v", err)
		return translation.Translate("Failed to get price for %s", symbol)
	}

	return fmt.Sprintf("%s: %s", symbol, helpers.FormatPriceUS(price, false))
}
