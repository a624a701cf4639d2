package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
)

// Target describes the database the loader writes into. Sqlite targets are
// opened lazily because a reset deletes the file before the first use.
type Target struct {
	cfg    config.Database
	logger *zap.Logger

	mu sync.Mutex
	db *bun.DB
}

// Module registers the load target with Fx.
var Module = fx.Provide(New)

// New prepares a Target and closes any open connection when Fx stops.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Target, error) {
	if _, err := selectDialect(cfg.Database.Driver); err != nil {
		return nil, err
	}

	target := &Target{cfg: cfg.Database, logger: logger}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return target.Close()
		},
	})

	return target, nil
}

// NewTarget builds a Target outside of Fx.
func NewTarget(cfg config.Database, logger *zap.Logger) (*Target, error) {
	if _, err := selectDialect(cfg.Driver); err != nil {
		return nil, err
	}
	return &Target{cfg: cfg, logger: logger}, nil
}

// Driver returns the configured driver name.
func (t *Target) Driver() string {
	return t.cfg.Driver
}

// Open connects to the target, reusing an existing connection.
func (t *Target) Open(ctx context.Context) (*bun.DB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db != nil {
		return t.db, nil
	}

	dial, err := selectDialect(t.cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openSQLDB(t.cfg.Driver, t.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyPoolSettings(sqlDB, t.cfg)

	db := bun.NewDB(sqlDB, dial)
	if err := pingContext(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if t.logger != nil {
		t.logger.Info("database connected", zap.String("driver", t.cfg.Driver))
	}
	t.db = db
	return db, nil
}

// Close releases the connection if one is open.
func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	switch driver {
	case "postgres":
		connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
		return sql.OpenDB(connector), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	case "sqlite":
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}

func pingContext(ctx context.Context, db *bun.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.DB.PingContext(pingCtx)
}
