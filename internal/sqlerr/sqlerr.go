// Package sqlerr handles PostgreSQL driver errors.
//
// It turns cryptic SQLSTATE codes from the relational store into
// errs.HTTPError values, so a constraint violation reaches the client as a
// "Bad Request" with a readable message and a missing row as "Not Found".
package sqlerr
