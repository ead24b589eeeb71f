package tokenstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

//go:embed migrations
var migrationFS embed.FS

// Postgres keeps items in the token_items table.
type Postgres struct {
	db *sqlx.DB
}

// ConnectPostgres opens the database, configures the pool and applies
// pending migrations.
func ConnectPostgres(connectionString string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	p := &Postgres{db: db}
	if err := p.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an already migrated connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// RunMigrations runs the embedded migrations using golang-migrate
func (p *Postgres) RunMigrations() error {
	sub, err := fs.Sub(migrationFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("failed to create postgres migrations sub-filesystem: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratepg.WithInstance(p.db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	// The schema is a single idempotent table, so a dirty state is safe to clear.
	if dirty {
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force clean dirty migration: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (p *Postgres) GetItem(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	var value string
	err := p.db.GetContext(ctx, &value, `SELECT value FROM token_items WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation("postgres", "get", time.Since(start), nil)
		return "", false, nil
	}
	metrics.RecordStoreOperation("postgres", "get", time.Since(start), err)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) SetItem(ctx context.Context, key, value string) error {
	start := time.Now()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO token_items (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	metrics.RecordStoreOperation("postgres", "set", time.Since(start), err)
	return err
}

func (p *Postgres) RemoveItem(ctx context.Context, key string) error {
	start := time.Now()
	_, err := p.db.ExecContext(ctx, `DELETE FROM token_items WHERE key = $1`, key)
	metrics.RecordStoreOperation("postgres", "remove", time.Since(start), err)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
