package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Runner applies the embedded migrations under a Postgres advisory lock so
// concurrent server starts do not race.
type Runner struct {
	Logger *slog.Logger
}

func (r Runner) Up(ctx context.Context, db *sql.DB) error {
	p, err := r.provider(db)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, res := range results {
		r.logger().Info("migration applied",
			slog.Int64("version", res.Source.Version),
			slog.String("file", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}
	return nil
}

// Version reports the highest applied migration.
func (r Runner) Version(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := r.provider(db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

func (r Runner) provider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	fsys, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, fsys, goose.WithSessionLocker(locker))
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Sources lists the embedded migration files.
func Sources() ([]string, error) {
	return fs.Glob(embedded, "migrations/*.sql")
}
