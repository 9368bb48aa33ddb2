package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		in       string
		interval string
		seconds  int64
		ok       bool
	}{
		{"15m", "15m", 900, true},
		{"30m", "30m", 1800, true},
		{" 1H ", "1h", 3600, true},
		{"4h", "4h", 14400, true},
		{"1d", "1d", 86400, true},
		{"2h", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		w, ok := ResolveWindow(tt.in)
		if ok != tt.ok {
			t.Fatalf("ResolveWindow(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if w.Interval != tt.interval || w.Seconds != tt.seconds {
			t.Errorf("ResolveWindow(%q) = %+v", tt.in, w)
		}
	}
}

func TestValidSymbol(t *testing.T) {
	for _, s := range []string{"BTCUSDT", "ETHUSDT", "1000PEPEUSDT"} {
		if !ValidSymbol(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"btcusdt", "BTC", "BTC-USDT", "ABCDEFGHIJKLMNOP"} {
		if ValidSymbol(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestParseDecimalComma(t *testing.T) {
	d, err := ParseDecimal("65000,5")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(decimal.RequireFromString("65000.5")) {
		t.Fatalf("got %s", d)
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewPercentCondition(t *testing.T) {
	c, err := NewPercentCondition(decimal.NewFromInt(5), "1H")
	if err != nil {
		t.Fatal(err)
	}
	if c.Window != "1h" || c.Kind() != KindPercent {
		t.Fatalf("unexpected condition %+v", c)
	}
	if _, err := NewPercentCondition(decimal.Zero, "1h"); err == nil {
		t.Fatal("expected error for zero percent")
	}
	if _, err := NewPercentCondition(decimal.NewFromInt(1), "2h"); err == nil {
		t.Fatal("expected error for unknown window")
	}
}

func TestNewPriceCondition(t *testing.T) {
	if _, err := NewPriceCondition(">", decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected error for >")
	}
	c, err := NewPriceCondition("<=", decimal.NewFromInt(1))
	if err != nil {
		t.Fatal(err)
	}
	a := Alert{Condition: c}
	if a.Kind() != KindPrice {
		t.Fatalf("kind = %s", a.Kind())
	}
}
