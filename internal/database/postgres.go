package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crypto-alert-bot/internal/types"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type alertModel struct {
	ID        int64          `gorm:"primaryKey"`
	UserID    int64          `gorm:"index;not null"`
	ChatID    int64          `gorm:"not null"`
	Symbol    string         `gorm:"not null"`
	Type      string         `gorm:"not null"`
	Op        sql.NullString `gorm:""`
	Target    string         `gorm:"not null"`
	WindowStr sql.NullString `gorm:""`
	WindowSec sql.NullInt64  `gorm:""`
	Active    bool           `gorm:"index;not null;default:true"`
	CreatedAt time.Time
}

func (alertModel) TableName() string { return "alerts" }

type metricModel struct {
	MetricName  string `gorm:"primaryKey"`
	LabelKey    string `gorm:"primaryKey"`
	LabelValue  string `gorm:"primaryKey"`
	MetricValue float64
}

func (metricModel) TableName() string { return "metrics" }

type gormLogrusWriter struct{}

func (gormLogrusWriter) Printf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// PostgresOptions tunes the connection pool.
type PostgresOptions struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore is the gorm backed Repository.
type PostgresStore struct {
	db *gorm.DB
}

var _ Repository = (*PostgresStore)(nil)

func OpenPostgres(dsn string, opts PostgresOptions) (*PostgresStore, error) {
	gormLogger := logger.New(
		gormLogrusWriter{},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&alertModel{}, &metricModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	log.Info("Postgres database initialized successfully.")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateAlert(ctx context.Context, alert *types.Alert) error {
	alert.Active = true
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	row, err := rowFromAlert(*alert)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	model := alertModel(row)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	alert.ID = model.ID
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]types.Alert, error) {
	var models []alertModel
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	return decodeModels(models), nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]types.Alert, error) {
	var models []alertModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query alerts for user %d: %w", userID, err)
	}
	return decodeModels(models), nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, alertID int64) error {
	err := s.db.WithContext(ctx).Model(&alertModel{}).Where("id = ?", alertID).Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate alert %d: %w", alertID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, alertID, userID int64) (bool, error) {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).Delete(&alertModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete alert: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *PostgresStore) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	return s.upsertMetric(metricName, labelKey, labelValue, value)
}

func (s *PostgresStore) SaveMetricWithLabels(metricName, labelKey, labelValue string, value float64) error {
	return s.upsertMetric(metricName, labelKey, labelValue, value)
}

func (s *PostgresStore) upsertMetric(metricName, labelKey, labelValue string, value float64) error {
	m := metricModel{MetricName: metricName, LabelKey: labelKey, LabelValue: labelValue, MetricValue: value}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save metric: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMetric(metricName string) (float64, error) {
	var m metricModel
	err := s.db.Where("metric_name = ? AND label_key = '' AND label_value = ''", metricName).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get metric %s: %w", metricName, err)
	}
	return m.MetricValue, nil
}

func (s *PostgresStore) GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error) {
	var models []metricModel
	if err := s.db.Where("metric_name = ? AND label_key <> ''", metricName).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query metrics with labels: %w", err)
	}
	metrics := make(map[string]map[string]float64)
	for _, m := range models {
		if _, exists := metrics[m.LabelKey]; !exists {
			metrics[m.LabelKey] = make(map[string]float64)
		}
		metrics[m.LabelKey][m.LabelValue] = m.MetricValue
	}
	return metrics, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decodeModels(models []alertModel) []types.Alert {
	alerts := make([]types.Alert, 0, len(models))
	for _, m := range models {
		alert, err := alertRow(m).toAlert()
		if err != nil {
			log.Warnf("Skipping undecodable alert row: %v", err)
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts
}
