// Package events defines the domain events published after successful writes
// and the interfaces used to emit and handle them.
//
// Services emit events without knowing who consumes them. The in-memory
// emitter dispatches to registered handlers in-process; the rabbitmq platform
// package publishes the same events to a topic exchange.
package events
