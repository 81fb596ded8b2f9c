package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date: River's tables first, then this
// module's additions on top of them.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationTable string, log *slog.Logger) error {
	if err := migrateRiver(ctx, pool, log); err != nil {
		return err
	}
	return migrateOwn(ctx, pool, migrationTable, log)
}

func migrateRiver(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: log})
	if err != nil {
		return errors.Join(ErrRiverMigrations, err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return errors.Join(ErrRiverMigrations, err)
	}
	for _, v := range res.Versions {
		log.InfoContext(ctx, "river migration applied",
			slog.Int("version", v.Version),
			slog.Duration("duration", v.Duration),
		)
	}
	return nil
}

func migrateOwn(ctx context.Context, pool *pgxpool.Pool, migrationTable string, log *slog.Logger) error {
	// goose needs database/sql. The wrapper shares the pool's connections, so it
	// must not be closed here.
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log})
	if migrationTable != "" {
		goose.SetTableName(migrationTable)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// goose returns the error as well; logging keeps shutdown under the caller's control.
	g.log.Error(fmt.Sprintf(format, args...))
}
