// Package shared holds the request context keys, JSON decoding and
// validation helpers, and response writers used by the api package and its
// middleware.
package shared
