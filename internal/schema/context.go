package schema

import (
	"context"

	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/loader"
)

// LoginPath is where unauthenticated GraphQL clients are sent.
const LoginPath = "/login"

// User is the authenticated dashboard user.
type User struct {
	ID        string
	Email     string
	SessionID string
}

// RequestContext is what every resolver can see about the current request.
type RequestContext struct {
	User            *User
	IsAuthenticated bool
	Oncotree        loader.TermLookup
	Loaders         *loader.Loaders
}

type requestContextKey struct{}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the request context, if one was attached.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok && rc != nil
}

// RequireAuth returns the request context of an authenticated request, or
// an UNAUTHENTICATED error. The error is returned unwrapped so graphql-go
// copies its extensions into the response.
func RequireAuth(ctx context.Context) (*RequestContext, error) {
	rc, ok := FromContext(ctx)
	if !ok || !rc.IsAuthenticated || rc.User == nil {
		return nil, errs.NewUnauthenticatedError(LoginPath)
	}
	return rc, nil
}
