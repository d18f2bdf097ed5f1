// Package postgres provides the PostgreSQL implementations of the store
// interfaces, built on pgx and its connection pool. Schema changes are goose
// migrations embedded in the binary and applied with Migrate.
package postgres
