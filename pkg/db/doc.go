// Package db provides the PostgreSQL plumbing the River-backed queues run on.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] with startup retries, applies the
// River schema through rivermigrate, and applies this module's own schema
// additions (the public job id lookup index) with [github.com/pressly/goose/v3].
//
// # Configuration
//
// [Config] fields carry env tags; parsing is left to the application:
//
//	DATABASE_URL                - PostgreSQL connection URL (required)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: tasks_schema_migrations)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, cfg.MigrationsTable, logger); err != nil {
//	    return err
//	}
//
// # Error Handling
//
//   - [ErrFailedToParseDBConfig] - Invalid connection string format
//   - [ErrFailedToOpenDBConnection] - Connection failed after all retries
//   - [ErrHealthcheckFailed] - Database ping failed
//   - [ErrRiverMigrations] - River schema migration failed
//   - [ErrSetDialect] - goose dialect configuration error
//   - [ErrApplyMigrations] - goose migration execution failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package db
