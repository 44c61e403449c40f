package keepalive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pgxConn pings through a pgx pool limited to one connection.
type pgxConn struct {
	pool *pgxpool.Pool
}

// DialPgx connects with pgx.
func DialPgx(ctx context.Context, cfg Config) (Conn, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pcfg.MaxConns = 1
	pcfg.MinConns = 0
	pcfg.MaxConnIdleTime = cfg.IdleTimeout
	pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &pgxConn{pool: pool}, nil
}

func (c *pgxConn) ServerTime(ctx context.Context) (time.Time, error) {
	var (
		now    time.Time
		status int
	)

	if err := c.pool.QueryRow(ctx, Query).Scan(&now, &status); err != nil {
		return time.Time{}, fmt.Errorf("ping query: %w", err)
	}

	return now, nil
}

func (c *pgxConn) Close() error {
	c.pool.Close()

	return nil
}

// gormConn pings through gorm and the postgres driver.
type gormConn struct {
	db *gorm.DB
}

// DialGorm connects with gorm.
func DialGorm(ctx context.Context, cfg Config) (Conn, error) {
	dsn := WithConnectTimeout(cfg.DatabaseURL, cfg.ConnectTimeout)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		closeGorm(db)

		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(cfg.IdleTimeout)

	return &gormConn{db: db.WithContext(ctx)}, nil
}

// closeGorm releases the pool gorm.Open leaves behind when its ping fails.
func closeGorm(db *gorm.DB) {
	if db == nil {
		return
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (c *gormConn) ServerTime(ctx context.Context) (time.Time, error) {
	var row struct {
		CurrentTime time.Time
		Status      int
	}

	if err := c.db.WithContext(ctx).Raw(Query).Scan(&row).Error; err != nil {
		return time.Time{}, fmt.Errorf("ping query: %w", err)
	}

	return row.CurrentTime, nil
}

func (c *gormConn) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err //nolint:wrapcheck
	}

	return sqlDB.Close() //nolint:wrapcheck
}

// WithConnectTimeout adds connect_timeout to a postgres url or keyword DSN unless present.
func WithConnectTimeout(dsn string, d time.Duration) string {
	if d <= 0 || strings.Contains(dsn, "connect_timeout") {
		return dsn
	}

	secs := strconv.Itoa(int(d.Round(time.Second) / time.Second))

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}

		q := u.Query()
		q.Set("connect_timeout", secs)
		u.RawQuery = q.Encode()

		return u.String()
	}

	return dsn + " connect_timeout=" + secs
}
