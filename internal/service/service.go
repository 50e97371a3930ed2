// Package service contains the business logic.
//
// It sits between the handler and the stores. It assembles the per-request
// GraphQL context, tracks user sessions and turns list and download
// requests into queries against the merged schema.
package service
