// Package api handles incoming HTTP requests, request validation and
// response formatting. Handlers translate HTTP into calls on the user,
// product and offering services and map their errors to status codes.
package api
