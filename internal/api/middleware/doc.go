// Package middleware provides the HTTP middleware of the API: trace IDs and
// request-scoped loggers, bearer authentication, and Prometheus metrics.
package middleware
