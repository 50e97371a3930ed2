package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	custom := "COHORT_NOT_FOUND"

	tests := []struct {
		name   string
		err    *HTTPError
		code   string
		status int
	}{
		{"unauthorized", NewUnauthorizedError("no", false), "UNAUTHORIZED", http.StatusUnauthorized},
		{"unauthenticated", NewUnauthenticatedError("/login"), CodeUnauthenticated, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no", false), "FORBIDDEN", http.StatusForbidden},
		{"bad request", NewBadRequestError("bad", false, nil, nil, nil), "BAD_REQUEST", http.StatusBadRequest},
		{"not found custom code", NewNotFoundError("gone", true, &custom), custom, http.StatusNotFound},
		{"too many", NewTooManyRequestsError(), "TOO_MANY_REQUESTS", http.StatusTooManyRequests},
		{"unavailable", NewServiceUnavailableError("neo4j down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"internal", NewInternalServerError(), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestHTTPErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("resolving cohorts: %w", NewForbiddenError("nope", false))

	assert.True(t, errors.Is(wrapped, &HTTPError{}))

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, "nope", httpErr.Message)
}

func TestExtensions(t *testing.T) {
	err := NewUnauthenticatedError("/login")

	ext := err.Extensions()
	assert.Equal(t, CodeUnauthenticated, ext["code"])
	assert.Equal(t, http.StatusUnauthorized, ext["status"])
	require.Contains(t, ext, "action")
	assert.Equal(t, "/login", ext["action"].(*Action).Value)

	plain := NewInternalServerError().Extensions()
	assert.NotContains(t, plain, "action")
	assert.NotContains(t, plain, "errors")
}

func TestWithMessage(t *testing.T) {
	base := NewBadRequestError("base", true, nil, []FieldError{{Field: "query", Error: "is required"}}, nil)
	copied := base.WithMessage("changed")

	assert.Equal(t, "base", base.Message)
	assert.Equal(t, "changed", copied.Message)
	assert.Equal(t, base.Errors, copied.Errors)
	assert.Equal(t, "BAD_REQUEST", MakeUpperCaseWithUnderscores("Bad Request"))
}
