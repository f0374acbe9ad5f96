// Package migrations embeds the goose migrations of the SQL stores. The job
// queue table is created on PostgreSQL only.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// postgresOnly names migrations for tables only the PostgreSQL adapter reads.
var postgresOnly = []string{"00002_analysis_jobs.sql"}

// Up applies every pending migration for dialect.
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	var opts []goose.ProviderOption
	if dialect != goose.DialectPostgres {
		opts = append(opts, goose.WithExcludeNames(postgresOnly))
	}
	p, err := goose.NewProvider(dialect, db, FS, opts...)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
