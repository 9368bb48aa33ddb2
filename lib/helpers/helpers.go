package helpers

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	thousand = decimal.NewFromInt(1000)
	small    = decimal.RequireFromString("1.2")
	tiny     = decimal.RequireFromString("0.00001")
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// PriceDecimals picks the number of fraction digits shown for a price.
func PriceDecimals(price decimal.Decimal) int32 {
	abs := price.Abs()
	switch {
	case abs.GreaterThanOrEqual(thousand):
		return 2
	case abs.GreaterThan(small):
		return 4
	case abs.LessThan(tiny) && !abs.IsZero():
		return 10
	}
	return 8
}

// FormatPriceUS renders a price with comma thousand separators.
func FormatPriceUS(price decimal.Decimal, escapeMarkdown bool) string {
	decimals := PriceDecimals(price)
	rounded := price.Round(decimals)

	intPart := rounded.Truncate(0)
	frac := rounded.Sub(intPart).Abs().StringFixed(decimals)

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%d", intPart.IntPart())
	if rounded.IsNegative() && intPart.IsZero() {
		formatted = "-" + formatted
	}
	if decimals > 0 {
		formatted += strings.TrimPrefix(frac, "0")
	}

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatPercent renders a percentage with two decimals and an explicit sign.
func FormatPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2)
	if !pct.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

// FormatAge renders how long ago t was, e.g. "3 hours ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// FormatCount renders an integer with comma thousand separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
