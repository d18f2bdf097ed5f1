// Package service contains the marketplace use cases: registration and
// profiles, the follow graph, and product and service listings.
//
// Services orchestrate the store interfaces from internal/store, enforce
// ownership, and emit domain events after successful writes. They depend on
// store interfaces only, never on a concrete database.
package service
