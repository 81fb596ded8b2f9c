package db

import "errors"

// Connection errors.
var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	// ErrShutdownTimeout is returned when connections are still checked out
	// once the shutdown context ends. The pool keeps closing in the background.
	ErrShutdownTimeout = errors.New("db: pool close timed out")
)

// Migration errors. River's schema is applied before this module's own.
var (
	ErrRiverMigrations = errors.New("db migrator: failed to apply river migrations")
	ErrSetDialect      = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations = errors.New("db migrator: failed to apply migrations")
)
