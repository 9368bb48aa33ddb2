package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	KindPrice   = "price"
	KindPercent = "pct"

	OpAbove = ">="
	OpBelow = "<="
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9]{5,15}$`)

// Alert is a single-shot trigger on market data. Only Active ever changes
// after creation, and only from true to false.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Symbol    string    `json:"symbol"`
	Condition Condition `json:"-"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind returns the storage tag of the alert's condition.
func (a Alert) Kind() string {
	if a.Condition == nil {
		return ""
	}
	return a.Condition.Kind()
}

// Condition is implemented by PriceCondition and PercentCondition only.
type Condition interface {
	Kind() string
	condition()
}

// PriceCondition fires when the current price crosses Target in the
// direction given by Comparator. Equality counts as a cross.
type PriceCondition struct {
	Comparator string
	Target     decimal.Decimal
}

func (PriceCondition) Kind() string { return KindPrice }
func (PriceCondition) condition()   {}

// PercentCondition fires when the close-to-close move between the last two
// candles of Window is at least Target percent in either direction.
type PercentCondition struct {
	Target decimal.Decimal
	Window string
}

func (PercentCondition) Kind() string { return KindPercent }
func (PercentCondition) condition()   {}

// ValidSymbol reports whether s is an uppercase ticker like BTCUSDT.
func ValidSymbol(s string) bool {
	return symbolRe.MatchString(s)
}

// ParseComparator accepts ">=" or "<=".
func ParseComparator(op string) (string, error) {
	switch strings.TrimSpace(op) {
	case OpAbove:
		return OpAbove, nil
	case OpBelow:
		return OpBelow, nil
	}
	return "", errors.Errorf("invalid comparator %q", op)
}

// ParseDecimal parses user input, accepting a comma as decimal separator.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid number %q", s)
	}
	return d, nil
}

// NewPriceCondition validates the comparator and builds a price condition.
func NewPriceCondition(op string, target decimal.Decimal) (PriceCondition, error) {
	cmp, err := ParseComparator(op)
	if err != nil {
		return PriceCondition{}, err
	}
	return PriceCondition{Comparator: cmp, Target: target}, nil
}

// NewPercentCondition requires a positive target and a known window.
func NewPercentCondition(target decimal.Decimal, window string) (PercentCondition, error) {
	if !target.IsPositive() {
		return PercentCondition{}, errors.New("percent must be positive")
	}
	w, ok := ResolveWindow(window)
	if !ok {
		return PercentCondition{}, errors.Errorf("invalid window %q: use %s", window, strings.Join(WindowNames(), ", "))
	}
	return PercentCondition{Target: target, Window: w.Name}, nil
}
