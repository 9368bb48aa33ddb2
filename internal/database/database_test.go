package database

import (
	"context"
	"path/filepath"
	"testing"

	"crypto-alert-bot/internal/types"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "bot.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func priceAlert(userID int64, symbol, op, target string) *types.Alert {
	return &types.Alert{
		UserID:    userID,
		ChatID:    userID * 10,
		Symbol:    symbol,
		Condition: types.PriceCondition{Comparator: op, Target: decimal.RequireFromString(target)},
	}
}

func TestCreateAndListActive(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := priceAlert(1, "BTCUSDT", ">=", "65000")
	if err := s.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}
	b := &types.Alert{
		UserID:    2,
		ChatID:    20,
		Symbol:    "ETHUSDT",
		Condition: types.PercentCondition{Target: decimal.NewFromInt(5), Window: "1h"},
	}
	if err := s.CreateAlert(ctx, b); err != nil {
		t.Fatal(err)
	}
	if a.ID == 0 || b.ID <= a.ID {
		t.Fatalf("unexpected ids %d, %d", a.ID, b.ID)
	}

	alerts, err := s.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].ID != a.ID || alerts[1].ID != b.ID {
		t.Fatalf("alerts not in id order: %d, %d", alerts[0].ID, alerts[1].ID)
	}

	pc, ok := alerts[0].Condition.(types.PriceCondition)
	if !ok || pc.Comparator != ">=" || !pc.Target.Equal(decimal.NewFromInt(65000)) {
		t.Fatalf("price condition not round-tripped: %#v", alerts[0].Condition)
	}
	pct, ok := alerts[1].Condition.(types.PercentCondition)
	if !ok || pct.Window != "1h" || !pct.Target.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("percent condition not round-tripped: %#v", alerts[1].Condition)
	}
	if alerts[1].ChatID != 20 || alerts[1].UserID != 2 || !alerts[1].Active {
		t.Fatalf("unexpected alert %+v", alerts[1])
	}
	if alerts[0].CreatedAt.IsZero() {
		t.Fatal("created_at not read back")
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := priceAlert(1, "BTCUSDT", "<=", "100")
	if err := s.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Deactivate(ctx, a.ID); err != nil {
			t.Fatalf("Deactivate #%d: %v", i, err)
		}
	}
	if err := s.Deactivate(ctx, 9999); err != nil {
		t.Fatalf("Deactivate unknown id: %v", err)
	}

	alerts, err := s.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no active alerts, got %d", len(alerts))
	}

	mine, err := s.ListByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Active {
		t.Fatalf("expected one inactive alert, got %+v", mine)
	}
}

func TestDeleteChecksOwner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := priceAlert(1, "BTCUSDT", ">=", "1")
	if err := s.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Delete(ctx, a.ID, 2)
	if err != nil || ok {
		t.Fatalf("Delete by other user = %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, a.ID, 1)
	if err != nil || !ok {
		t.Fatalf("Delete by owner = %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, a.ID, 1)
	if err != nil || ok {
		t.Fatalf("second Delete = %v, %v", ok, err)
	}
	if err := s.Deactivate(ctx, a.ID); err != nil {
		t.Fatalf("Deactivate deleted alert: %v", err)
	}
}

func TestListActiveSkipsBadRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.DB.Exec(`INSERT INTO alerts (user_id, chat_id, symbol, type, target) VALUES (1, 1, 'BTCUSDT', 'weird', '1')`); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAlert(ctx, priceAlert(1, "ETHUSDT", ">=", "1")); err != nil {
		t.Fatal(err)
	}

	alerts, err := s.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected alerts %+v", alerts)
	}
}

func TestMetrics(t *testing.T) {
	s := openTestStore(t)

	if v, err := s.GetMetric("alerts_fired"); err != nil || v != 0 {
		t.Fatalf("GetMetric missing = %v, %v", v, err)
	}
	if err := s.SaveMetric("alerts_fired", "", "", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveMetric("alerts_fired", "", "", 4); err != nil {
		t.Fatal(err)
	}
	if v, err := s.GetMetric("alerts_fired"); err != nil || v != 4 {
		t.Fatalf("GetMetric = %v, %v", v, err)
	}

	if err := s.SaveMetricWithLabels("messages_per_channel", "42", "chat", 7); err != nil {
		t.Fatal(err)
	}
	labelled, err := s.GetMetricsWithLabels("messages_per_channel")
	if err != nil {
		t.Fatal(err)
	}
	if labelled["42"]["chat"] != 7 {
		t.Fatalf("unexpected labelled metrics %v", labelled)
	}
}
