package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const alertColumns = `id, user_id, chat_id, symbol, type, op, target, window_str, window_sec, active, created_at`

// alertRow mirrors the alerts table; both backends decode through it.
type alertRow struct {
	ID        int64
	UserID    int64
	ChatID    int64
	Symbol    string
	Type      string
	Op        sql.NullString
	Target    string
	WindowStr sql.NullString
	WindowSec sql.NullInt64
	Active    bool
	CreatedAt time.Time
}

func rowFromAlert(alert types.Alert) (alertRow, error) {
	row := alertRow{
		ID:        alert.ID,
		UserID:    alert.UserID,
		ChatID:    alert.ChatID,
		Symbol:    alert.Symbol,
		Active:    alert.Active,
		CreatedAt: alert.CreatedAt,
	}

	switch c := alert.Condition.(type) {
	case types.PriceCondition:
		row.Type = types.KindPrice
		row.Op = sql.NullString{String: c.Comparator, Valid: true}
		row.Target = c.Target.String()
	case types.PercentCondition:
		w, ok := types.ResolveWindow(c.Window)
		if !ok {
			return alertRow{}, fmt.Errorf("unknown window %q", c.Window)
		}
		row.Type = types.KindPercent
		row.Target = c.Target.String()
		row.WindowStr = sql.NullString{String: w.Name, Valid: true}
		row.WindowSec = sql.NullInt64{Int64: w.Seconds, Valid: true}
	default:
		return alertRow{}, fmt.Errorf("alert has no condition")
	}
	return row, nil
}

// toAlert decodes the kind specific columns. The window name is kept as
// stored; resolving it is the engine's job.
func (r alertRow) toAlert() (types.Alert, error) {
	target, err := decimal.NewFromString(r.Target)
	if err != nil {
		return types.Alert{}, fmt.Errorf("alert %d: bad target %q: %w", r.ID, r.Target, err)
	}

	alert := types.Alert{
		ID:        r.ID,
		UserID:    r.UserID,
		ChatID:    r.ChatID,
		Symbol:    r.Symbol,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}

	switch r.Type {
	case types.KindPrice:
		cmp, err := types.ParseComparator(r.Op.String)
		if err != nil {
			return types.Alert{}, fmt.Errorf("alert %d: %w", r.ID, err)
		}
		alert.Condition = types.PriceCondition{Comparator: cmp, Target: target}
	case types.KindPercent:
		alert.Condition = types.PercentCondition{Target: target, Window: r.WindowStr.String}
	default:
		return types.Alert{}, fmt.Errorf("alert %d: unknown type %q", r.ID, r.Type)
	}
	return alert, nil
}

// CreateAlert inserts a new active alert and fills in ID and CreatedAt.
func (s *Store) CreateAlert(ctx context.Context, alert *types.Alert) error {
	alert.Active = true
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	row, err := rowFromAlert(*alert)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	query := `
	INSERT INTO alerts (user_id, chat_id, symbol, type, op, target, window_str, window_sec, active, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?);`

	res, err := s.DB.ExecContext(ctx, query, row.UserID, row.ChatID, row.Symbol, row.Type, row.Op, row.Target,
		row.WindowStr, row.WindowSec, row.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	alert.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read alert id: %w", err)
	}

	log.Debugf("Alert inserted: ID: %d, UserID: %d, ChatID: %d, Symbol: %s, Type: %s", alert.ID, alert.UserID, alert.ChatID, alert.Symbol, row.Type)
	return nil
}

// ListActive returns every active alert in id order. Rows that cannot be
// decoded are logged and left out.
func (s *Store) ListActive(ctx context.Context) ([]types.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE active = 1 ORDER BY id;`
	return s.queryAlerts(ctx, query)
}

// ListByUser returns all alerts of a user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]types.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ? ORDER BY id DESC;`
	alerts, err := s.queryAlerts(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for user %d: %w", userID, err)
	}
	return alerts, nil
}

// Deactivate marks an alert inactive. Unknown and already inactive ids are
// not an error.
func (s *Store) Deactivate(ctx context.Context, alertID int64) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE alerts SET active = 0 WHERE id = ?;`, alertID)
	if err != nil {
		return fmt.Errorf("failed to deactivate alert %d: %w", alertID, err)
	}
	return nil
}

// Delete removes an alert owned by userID. It reports false when no such
// alert exists for that user.
func (s *Store) Delete(ctx context.Context, alertID, userID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM alerts WHERE id = ? AND user_id = ?;`, alertID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	return n > 0, nil
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]types.Alert, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var (
			row     alertRow
			created interface{}
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.ChatID, &row.Symbol, &row.Type, &row.Op, &row.Target,
			&row.WindowStr, &row.WindowSec, &row.Active, &created); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.CreatedAt = parseTimestamp(created)

		alert, err := row.toAlert()
		if err != nil {
			log.Warnf("Skipping undecodable alert row: %v", err)
			continue
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	case []byte:
		return parseTimestamp(string(t))
	}
	return time.Time{}
}
