// Package handler is the HTTP entry point after the router.
//
// It parses and validates requests with the validation package, calls the
// service layer and writes responses. GraphQL requests go straight to the
// gateway service.
package handler
