// Package logger provides structured logging functionality for the application.
//
// It configures log/slog with a JSON handler at the configured level and
// carries request-scoped loggers (enriched with trace IDs) through
// context.Context.
package logger
