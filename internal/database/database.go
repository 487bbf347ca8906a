// Package database opens the relational store behind the repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseURL maps DATABASE_URL onto a dialect and the DSN its driver expects.
func ParseURL(raw string) (Dialect, string, error) {
	v := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(v, "postgres://"), strings.HasPrefix(v, "postgresql://"):
		return DialectPostgres, v, nil
	case strings.HasPrefix(v, "sqlite://"):
		dsn := strings.TrimPrefix(v, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", raw)
		}
		return DialectSQLite, dsn, nil
	case strings.HasPrefix(v, "file:"):
		return DialectSQLite, v, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", raw)
	}
}

type DB struct {
	Gorm    *gorm.DB
	Dialect Dialect
	URL     string
}

func Open(ctx context.Context, rawURL string) (*DB, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var gdb *gorm.DB
	switch dialect {
	case DialectPostgres:
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		gdb, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("open gorm postgres: %w", err)
		}
	case DialectSQLite:
		gdb, err = gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open gorm sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{Gorm: gdb, Dialect: dialect, URL: strings.TrimSpace(rawURL)}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate brings the schema up to date: versioned SQL on Postgres, AutoMigrate on sqlite.
func (d *DB) Migrate() error {
	if d.Dialect == DialectPostgres {
		return RunMigrations(d.URL, "up")
	}
	return d.Gorm.AutoMigrate(&domain.User{}, &domain.Session{})
}
