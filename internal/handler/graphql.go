package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/middleware"
	"github.com/mandawilson/smile-dashboard/internal/schema"
	"github.com/mandawilson/smile-dashboard/internal/server"
	"github.com/mandawilson/smile-dashboard/internal/service"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// GraphQLHandler serves GraphQL over HTTP.
type GraphQLHandler struct {
	Handler
	gateway    *service.GatewayService
	playground http.HandlerFunc
}

func NewGraphQLHandler(s *server.Server, gateway *service.GatewayService, playground http.HandlerFunc) *GraphQLHandler {
	return &GraphQLHandler{
		Handler:    NewHandler(s),
		gateway:    gateway,
		playground: playground,
	}
}

// Post executes a JSON {query, operationName, variables} body. GraphQL
// errors are part of a 200 response.
func (h *GraphQLHandler) Post(c echo.Context) error {
	var req schema.Request
	if err := c.Bind(&req); err != nil {
		return errs.NewBadRequestError("Request body must be a JSON GraphQL request", false, nil, nil, nil)
	}
	return h.execute(c, req)
}

// Get executes queries passed in the query string and serves the
// playground to browsers that send no query.
func (h *GraphQLHandler) Get(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		if h.playground == nil {
			return errs.NewBadRequestError("Missing query", false, nil, nil, nil)
		}
		h.playground.ServeHTTP(c.Response(), c.Request())
		return nil
	}

	req := schema.Request{Query: query, OperationName: c.QueryParam("operationName")}
	if vars := c.QueryParam("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			return errs.NewBadRequestError("variables must be a JSON object", false, nil, nil, nil)
		}
	}
	if isMutation(req) {
		return errs.NewBadRequestError("Mutations must use POST", true, nil, nil, nil)
	}
	return h.execute(c, req)
}

func (h *GraphQLHandler) execute(c echo.Context, req schema.Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return errs.NewBadRequestError("Missing query", false, nil, nil, nil)
	}

	if txn := newrelic.FromContext(c.Request().Context()); txn != nil && req.OperationName != "" {
		txn.AddAttribute("graphql.operation", req.OperationName)
	}

	result := h.gateway.Execute(c.Request().Context(), currentUser(c), req)
	if result.HasErrors() {
		middleware.GetLogger(c).Debug().
			Str("operation", req.OperationName).
			Int("errors", len(result.Errors)).
			Str("first_error", result.Errors[0].Message).
			Msg("graphql request returned errors")
	}
	if err := c.JSON(http.StatusOK, result); err != nil {
		return errors.Wrap(err, "failed to write graphql response")
	}
	return nil
}

// isMutation reports whether the selected operation of req is a mutation.
// Unparseable documents report false and fail during execution.
func isMutation(req schema.Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		name := ""
		if op.Name != nil {
			name = op.Name.Value
		}
		if req.OperationName == "" || req.OperationName == name {
			return op.Operation == ast.OperationTypeMutation
		}
	}
	return false
}
