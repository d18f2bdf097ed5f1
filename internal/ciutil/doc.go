// Package ciutil provides helpers for detecting CI environments and reading
// environment variables that have legacy or alternative names.
package ciutil
