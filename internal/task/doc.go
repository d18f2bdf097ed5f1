// Package task runs background work for the API server: an in-memory queue
// drained by a fixed pool of workers, plus interval schedules that enqueue
// recurring tasks such as follower counter reconciliation.
package task
