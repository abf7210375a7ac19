package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings the underlying connection pool
func HealthCheck(db *gorm.DB) error {
	_, err := HealthCheckWithStats(db)
	return err
}

// HealthCheckWithStats pings the pool and returns its statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return sqlDB.Stats(), fmt.Errorf("database ping failed: %w", err)
	}
	return sqlDB.Stats(), nil
}
