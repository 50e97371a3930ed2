package errs

import (
	"net/http"
)

// CodeUnauthenticated is the code GraphQL clients see when a request
// carries no valid session.
const CodeUnauthenticated = "UNAUTHENTICATED"

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
//
// override lets the error handler decide whether the message can be shown
// to the user as-is.
func NewUnauthorizedError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusUnauthorized)),
		Message:  message,
		Status:   http.StatusUnauthorized,
		Override: override,
	}
}

// NewUnauthenticatedError is the 401 returned by resolvers when the request
// context has no authenticated user. It carries a redirect hint to the
// login route.
func NewUnauthenticatedError(loginPath string) *HTTPError {
	err := &HTTPError{
		Code:     CodeUnauthenticated,
		Message:  "You must be logged in to access this data",
		Status:   http.StatusUnauthorized,
		Override: true,
	}
	if loginPath != "" {
		err.Action = &Action{
			Type:    ActionTypeRedirect,
			Message: "Log in to continue",
			Value:   loginPath,
		}
	}
	return err
}

// NewForbiddenError creates a 403 Forbidden HTTPError.
func NewForbiddenError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusForbidden)),
		Message:  message,
		Status:   http.StatusForbidden,
		Override: override,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// code overrides the default "BAD_REQUEST" when non-nil; errors and action
// are optional payloads.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewTooManyRequestsError is returned by the rate limiter.
func NewTooManyRequestsError() *HTTPError {
	return &HTTPError{
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
		Message: "Too many requests, slow down",
		Status:  http.StatusTooManyRequests,
	}
}

// NewServiceUnavailableError reports an upstream store that is down.
func NewServiceUnavailableError(message string) *HTTPError {
	return &HTTPError{
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusServiceUnavailable)),
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
// The message is the generic status text, never the underlying error.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// ValidationError converts a generic validation error into a 400.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}
