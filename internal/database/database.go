package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"crypto-alert-bot/internal/types"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Repository is the durable alert store shared by the command handlers and
// the evaluation engine.
type Repository interface {
	CreateAlert(ctx context.Context, alert *types.Alert) error
	ListActive(ctx context.Context) ([]types.Alert, error)
	ListByUser(ctx context.Context, userID int64) ([]types.Alert, error)
	Deactivate(ctx context.Context, alertID int64) error
	Delete(ctx context.Context, alertID, userID int64) (bool, error)

	SaveMetric(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	SaveMetricWithLabels(metricName, labelKey, labelValue string, value float64) error
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)

	Close() error
}

// Store is the SQLite backed Repository.
type Store struct {
	DB *sql.DB
}

var _ Repository = (*Store)(nil)

func OpenSQLite(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// one writer at a time; sqlite serialises anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		type TEXT NOT NULL,
		op TEXT,
		target TEXT NOT NULL,
		window_str TEXT,
		window_sec INTEGER,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err = db.Exec(createTableQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create alerts table: %w", err)
	}

	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (active);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create alerts index: %w", err)
	}

	createMetricsTable := `
		CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT DEFAULT NULL,
		label_value TEXT DEFAULT NULL,
		metric_value REAL NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`
	if _, err = db.Exec(createMetricsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metrics table: %w", err)
	}

	log.Infof("Database initialized successfully at %s", dbPath)
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
