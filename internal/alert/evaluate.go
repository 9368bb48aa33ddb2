package alert

import (
	"crypto-alert-bot/internal/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// priceTriggered is inclusive: a price exactly at the target fires.
func priceTriggered(c types.PriceCondition, price decimal.Decimal) bool {
	switch c.Comparator {
	case types.OpAbove:
		return price.GreaterThanOrEqual(c.Target)
	case types.OpBelow:
		return price.LessThanOrEqual(c.Target)
	}
	return false
}

// move is the close-to-close change between the last two candles.
type move struct {
	Prev   decimal.Decimal
	Last   decimal.Decimal
	Change decimal.Decimal // percent, signed
}

func (m move) Up() bool {
	return !m.Change.IsNegative()
}

// percentMove needs at least two candles and a non-zero previous close;
// otherwise it returns a skip reason.
func percentMove(candles []types.Candle) (move, string) {
	if len(candles) < 2 {
		return move{}, "insufficient_candles"
	}
	prev := candles[len(candles)-2].Close
	last := candles[len(candles)-1].Close
	if prev.IsZero() {
		return move{}, "zero_prev_close"
	}
	return move{
		Prev:   prev,
		Last:   last,
		Change: last.Sub(prev).Div(prev).Mul(hundred),
	}, ""
}

// percentTriggered ignores the direction of the move.
func percentTriggered(c types.PercentCondition, change decimal.Decimal) bool {
	return change.Abs().GreaterThanOrEqual(c.Target)
}
