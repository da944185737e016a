// Package postgres keeps the control plane records in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

type database struct {
	pool *pgxpool.Pool
}

var _ db.Database = &database{}

type Config struct {
	// Migrate applies pending migrations before the database is used.
	Migrate bool
}

type Option func(*Config) *Config

func WithMigration(migrate bool) Option {
	return func(c *Config) *Config {
		c.Migrate = migrate
		return c
	}
}

// New connects to the database at url.
func New(ctx context.Context, url string, options ...Option) (db.Database, error) {
	c := Config{Migrate: true}
	for _, option := range options {
		c = *option(&c)
	}

	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if c.Migrate {
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &database{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Str("pkg", "goose").Msgf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("pkg", "goose").Msgf(format, v...)
}

func (d *database) Projects() db.ProjectInterface {
	return &projects{pool: d.pool}
}

func (d *database) Apps() db.AppInterface {
	return &apps{pool: d.pool}
}

func (d *database) Deployments() db.DeploymentInterface {
	return &deployments{pool: d.pool}
}

func (d *database) Services() db.ServiceInterface {
	return &services{pool: d.pool}
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var (
	_ querier = &pgxpool.Pool{}
	_ querier = pgx.Tx(nil)
)
