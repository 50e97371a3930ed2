package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/server"
)

const (
	UserEmailKey = "user_email"
	SessionIDKey = "session_id"
)

// Identity is the authenticated user of a request, if any.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// emailClaims are the custom session token claims the dashboard's Clerk
// instance is configured to issue.
type emailClaims struct {
	Email string `json:"email"`
}

// AuthMiddleware verifies Clerk session tokens.
type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthMiddleware{server: s}
}

func authorizationOptions(failure http.Handler) []clerkhttp.AuthorizationOption {
	return []clerkhttp.AuthorizationOption{
		clerkhttp.AuthorizationFailureHandler(failure),
		clerkhttp.CustomClaimsConstructor(func(context.Context) any {
			return &emailClaims{}
		}),
	}
}

// Authenticate reads the bearer token when present and lets every request
// through. Anonymous requests reach the handler without an identity, and
// resolvers decide what needs a user.
func (auth *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var nextErr error

		proceed := func(anonymous bool) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if anonymous {
					GetLogger(c).Debug().Msg("invalid session token, continuing unauthenticated")
				} else {
					setIdentity(c)
				}
				nextErr = next(c)
			}
		}

		clerkhttp.WithHeaderAuthorization(authorizationOptions(proceed(true))...)(proceed(false)).
			ServeHTTP(c.Response(), c.Request())

		return nextErr
	}
}

// RequireAuth rejects requests without a valid session token.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var nextErr error

		reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextErr = errs.NewUnauthorizedError("Unauthorized", false)
		})
		proceed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			c.SetRequest(r)

			if !setIdentity(c) {
				auth.server.Logger.Error().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")
				nextErr = errs.NewUnauthorizedError("Unauthorized", false)
				return
			}

			nextErr = next(c)
		})

		clerkhttp.WithHeaderAuthorization(authorizationOptions(reject)...)(proceed).
			ServeHTTP(c.Response(), c.Request())

		return nextErr
	}
}

// setIdentity copies Clerk claims into the Echo context. It reports false
// when the request carries no claims.
func setIdentity(c echo.Context) bool {
	claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
	if !ok {
		return false
	}

	c.Set(UserIDKey, claims.Subject)
	c.Set(SessionIDKey, claims.SessionID)
	if custom, ok := claims.Custom.(*emailClaims); ok && custom.Email != "" {
		c.Set(UserEmailKey, custom.Email)
	}
	return true
}

// GetIdentity returns the authenticated identity, or nil.
func GetIdentity(c echo.Context) *Identity {
	userID := GetUserID(c)
	if userID == "" {
		return nil
	}
	identity := &Identity{UserID: userID}
	identity.Email, _ = c.Get(UserEmailKey).(string)
	identity.SessionID, _ = c.Get(SessionIDKey).(string)
	return identity
}
