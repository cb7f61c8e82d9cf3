package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ridoystarlord/ormschema/config"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// GetPool returns a singleton connection pool for the application
func GetPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		if cfg.DatabaseURL == "" {
			poolErr = fmt.Errorf("DATABASE_URL not set in environment")
			return
		}

		ctx := context.Background()
		pool, poolErr = pgxpool.New(ctx, cfg.DatabaseURL)
		if poolErr != nil {
			poolErr = fmt.Errorf("unable to create connection pool: %v", poolErr)
			return
		}

		// Test the connection
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			poolErr = fmt.Errorf("unable to ping database: %v", err)
			return
		}
	})

	return pool, poolErr
}

// ClosePool closes the connection pool (should be called on application shutdown)
func ClosePool() {
	if pool != nil {
		pool.Close()
	}
}

// OpenSQLite opens the SQLite database at dsn and checks it responds.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}
	return db, nil
}

// Ping checks the database configured in cfg.
func Ping(ctx context.Context, cfg *config.Config) error {
	driver, err := cfg.Driver()
	if err != nil {
		return err
	}
	switch driver {
	case config.DriverPostgres:
		p, err := GetPool(cfg)
		if err != nil {
			return err
		}
		return p.Ping(ctx)
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return err
		}
		return db.Close()
	}
	return fmt.Errorf("DATABASE_URL not set in environment")
}
