// Package schema builds the gateway's GraphQL schema.
//
// Two subschemas are built independently, one over the Neo4j graph and
// one over the PostgreSQL patient id tables, then merged into a single
// executable schema with one root Query and one root Mutation.
package schema

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/mandawilson/smile-dashboard/internal/metrics"
)

// Subschema is a named set of root fields.
type Subschema struct {
	Name     string
	Query    graphql.Fields
	Mutation graphql.Fields
}

// Merge combines subschemas into one schema. A root field defined by two
// subschemas is an error naming both.
func Merge(subschemas ...*Subschema) (graphql.Schema, error) {
	query := graphql.Fields{}
	mutation := graphql.Fields{}

	if err := mergeRoot("Query", query, subschemas, func(s *Subschema) graphql.Fields { return s.Query }); err != nil {
		return graphql.Schema{}, err
	}
	if err := mergeRoot("Mutation", mutation, subschemas, func(s *Subschema) graphql.Fields { return s.Mutation }); err != nil {
		return graphql.Schema{}, err
	}
	if len(query) == 0 {
		return graphql.Schema{}, fmt.Errorf("merged schema has no query fields")
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
	}
	if len(mutation) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation})
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("building merged schema: %w", err)
	}
	return schema, nil
}

func mergeRoot(root string, into graphql.Fields, subschemas []*Subschema, fields func(*Subschema) graphql.Fields) error {
	owner := make(map[string]string)
	for _, s := range subschemas {
		names := make([]string, 0, len(fields(s)))
		for name := range fields(s) {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if prev, dup := owner[name]; dup {
				return fmt.Errorf("%s.%s is defined by both %q and %q", root, name, prev, s.Name)
			}
			owner[name] = s.Name
			into[name] = fields(s)[name]
		}
	}
	return nil
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Metric labels for operations that are not tracked by name.
const (
	OperationAnonymous = "anonymous"
	OperationOther     = "other"
)

// Gateway executes requests against the merged schema.
type Gateway struct {
	schema graphql.Schema

	// operations are the names reported as their own metric label. Set
	// at startup only.
	operations map[string]struct{}
}

// NewGateway merges subschemas into an executable Gateway.
func NewGateway(subschemas ...*Subschema) (*Gateway, error) {
	schema, err := Merge(subschemas...)
	if err != nil {
		return nil, err
	}
	return &Gateway{schema: schema, operations: map[string]struct{}{}}, nil
}

// TrackOperations registers operation names that get their own metric
// label. Every other named operation is counted as OperationOther.
func (g *Gateway) TrackOperations(names ...string) {
	for _, name := range names {
		g.operations[name] = struct{}{}
	}
}

func (g *Gateway) metricLabel(operationName string) string {
	if operationName == "" {
		return OperationAnonymous
	}
	if _, ok := g.operations[operationName]; ok {
		return operationName
	}
	return OperationOther
}

// Execute runs req. Resolvers read the RequestContext from ctx.
func (g *Gateway) Execute(ctx context.Context, req Request) *graphql.Result {
	operation := g.metricLabel(req.OperationName)
	start := time.Now()

	result := graphql.Do(graphql.Params{
		Schema:         g.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	status := "ok"
	if result.HasErrors() {
		status = "error"
	}
	metrics.GraphQLRequests.WithLabelValues(operation, status).Inc()
	metrics.GraphQLDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	return result
}

// Schema returns the merged schema.
func (g *Gateway) Schema() *graphql.Schema {
	return &g.schema
}
