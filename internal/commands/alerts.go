package commands

import (
	"context"
	"strconv"
	"strings"

	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ParseSet validates "/set SYMBOL OP PRICE" arguments. The error text is the
// reply shown to the user.
func ParseSet(args string) (string, types.PriceCondition, error) {
	parts := fields(args)
	if len(parts) != 3 {
		return "", types.PriceCondition{}, errors.New(translation.Translate("Format: /set <SYMBOL> <OP> <PRICE>\nExample: /set BTCUSDT >= 65000"))
	}

	symbol, ok := parseSymbol(parts[0])
	if !ok {
		return "", types.PriceCondition{}, errors.New(invalidSymbol())
	}

	target, err := types.ParseDecimal(parts[2])
	if err != nil {
		return "", types.PriceCondition{}, errors.New(translation.Translate("PRICE must be a number"))
	}

	cond, err := types.NewPriceCondition(parts[1], target)
	if err != nil {
		return "", types.PriceCondition{}, errors.New(translation.Translate("OP must be '>=' or '<='"))
	}
	return symbol, cond, nil
}

// ParseSetPct validates "/set_pct SYMBOL PERCENT WINDOW" arguments.
func ParseSetPct(args string) (string, types.PercentCondition, error) {
	parts := fields(args)
	if len(parts) != 3 {
		return "", types.PercentCondition{}, errors.New(translation.Translate("Format: /set_pct <SYMBOL> <PERCENT> <WINDOW>\nExample: /set_pct BTCUSDT 5 1h"))
	}

	symbol, ok := parseSymbol(parts[0])
	if !ok {
		return "", types.PercentCondition{}, errors.New(invalidSymbol())
	}

	pct, err := types.ParseDecimal(strings.TrimSuffix(parts[1], "%"))
	if err != nil {
		return "", types.PercentCondition{}, errors.New(translation.Translate("PERCENT must be a number"))
	}
	if !pct.IsPositive() {
		return "", types.PercentCondition{}, errors.New(translation.Translate("PERCENT must be positive"))
	}

	if _, ok := types.ResolveWindow(parts[2]); !ok {
		return "", types.PercentCondition{}, errors.New(translation.Translate("Unknown window %s. Use one of: %s",
			parts[2], strings.Join(types.WindowNames(), ", ")))
	}

	cond, err := types.NewPercentCondition(pct, parts[2])
	if err != nil {
		return "", types.PercentCondition{}, err
	}
	return symbol, cond, nil
}

// ParseDelete validates "/delete ID" arguments.
func ParseDelete(args string) (int64, error) {
	parts := fields(args)
	if len(parts) != 1 {
		return 0, errors.New(translation.Translate("Format: /delete <ID>"))
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "#"), 10, 64)
	if err != nil {
		return 0, errors.New(translation.Translate("ID must be a number"))
	}
	return id, nil
}

func (c *Commands) Set(ctx context.Context, req Request) string {
	symbol, cond, err := ParseSet(req.Args)
	if err != nil {
		return err.Error()
	}

	alert := types.Alert{UserID: req.UserID, ChatID: req.ChatID, Symbol: symbol, Condition: cond}
	if err := c.store.CreateAlert(ctx, &alert); err != nil {
		log.WithField("user_id", req.UserID).Errorf("Failed to save alert: %v", err)
		return translation.Translate("Failed to save alert. Please try again later.")
	}

	return translation.Translate("✅ Alert #%d created: %s %s %s", alert.ID, symbol, cond.Comparator, cond.Target.String())
}

func (c *Commands) SetPct(ctx context.Context, req Request) string {
	symbol, cond, err := ParseSetPct(req.Args)
	if err != nil {
		return err.Error()
	}

	alert := types.Alert{UserID: req.UserID, ChatID: req.ChatID, Symbol: symbol, Condition: cond}
	if err := c.store.CreateAlert(ctx, &alert); err != nil {
		log.WithField("user_id", req.UserID).Errorf("Failed to save alert: %v", err)
		return translation.Translate("Failed to save alert. Please try again later.")
	}

	return translation.Translate("✅ Alert #%d created: %s ±%s%% over %s", alert.ID, symbol, cond.Target.String(), cond.Window)
}

// List shows every alert of the user, newest first, including fired ones.
func (c *Commands) List(ctx context.Context, userID int64) string {
	alerts, err := c.store.ListByUser(ctx, userID)
	if err != nil {
		log.WithField("user_id", userID).Errorf("Failed to fetch alerts: %v", err)
		return translation.Translate("Failed to fetch alerts. Please try again later.")
	}
	if len(alerts) == 0 {
		return translation.Translate("You have no alerts.")
	}

	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, translation.Translate("Your alerts (%s):", helpers.FormatCount(int64(len(alerts)))))
	for _, a := range alerts {
		lines = append(lines, formatListItem(a))
	}
	return strings.Join(lines, "\n")
}

func formatListItem(a types.Alert) string {
	status := translation.Translate("active")
	if !a.Active {
		status = translation.Translate("fired")
	}
	age := helpers.FormatAge(a.CreatedAt)

	switch cond := a.Condition.(type) {
	case types.PriceCondition:
		return translation.Translate("#%d: %s %s %s | %s, created %s",
			a.ID, a.Symbol, cond.Comparator, cond.Target.String(), status, age)
	case types.PercentCondition:
		return translation.Translate("#%d: %s ±%s%% / %s | %s, created %s",
			a.ID, a.Symbol, cond.Target.String(), cond.Window, status, age)
	}
	return translation.Translate("#%d: %s | %s, created %s", a.ID, a.Symbol, status, age)
}

func (c *Commands) Delete(ctx context.Context, req Request) string {
	id, err := ParseDelete(req.Args)
	if err != nil {
		return err.Error()
	}

	ok, err := c.store.Delete(ctx, id, req.UserID)
	if err != nil {
		log.WithFields(log.Fields{"user_id": req.UserID, "alert_id": id}).Errorf("Failed to delete alert: %v", err)
		return translation.Translate("Failed to delete alert. Please try again later.")
	}
	if !ok {
		return translation.Translate("No alert with this ID (or it is not yours).")
	}
	return translation.Translate("🗑️ Alert #%d deleted", id)
}
