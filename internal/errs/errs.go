// Package errs defines the gateway's error types and utilities.
//
// The same HTTPError shape is returned to REST clients as JSON and to
// GraphQL clients as the `extensions` of a GraphQL error, so the UI can
// react to an error code no matter which endpoint produced it.
package errs
