// Package graphdb wraps the Neo4j driver used by the graph half of the
// merged schema. Results come back as plain maps so resolvers never touch
// driver types.
package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/mandawilson/smile-dashboard/internal/config"
	"github.com/mandawilson/smile-dashboard/internal/metrics"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
)

// IDKey holds a node's element id inside a normalized node map.
const IDKey = "__id"

// Row is one result record keyed by the RETURN aliases.
type Row map[string]any

// Runner executes Cypher. Client is the production implementation; tests
// substitute a fake.
type Runner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
}

// Client is a Runner backed by a neo4j driver.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zerolog.Logger
	slow     time.Duration
}

// VerifyTimeout bounds the connectivity check at startup.
const VerifyTimeout = 10 * time.Second

// New creates the driver and verifies connectivity.
func New(cfg config.Neo4jConfig, logger *zerolog.Logger, slowQueryThreshold time.Duration) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), VerifyTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	logger.Info().Str("uri", cfg.URI).Str("database", cfg.Database).Msg("connected to neo4j")

	return &Client{
		driver:   driver,
		database: cfg.Database,
		log:      logger,
		slow:     slowQueryThreshold,
	}, nil
}

func (c *Client) Read(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	return c.run(ctx, neo4j.AccessModeRead, cypher, params)
}

func (c *Client) Write(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	return c.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

// Ping checks connectivity; used by the status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) Close(ctx context.Context) error {
	c.log.Info().Msg("closing neo4j driver")
	return c.driver.Close(ctx)
}

func (c *Client) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) ([]Row, error) {
	modeLabel := "read"
	if mode == neo4j.AccessModeWrite {
		modeLabel = "write"
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
	defer session.Close(ctx)

	start := time.Now()
	records, err := collect(ctx, session, cypher, params)
	elapsed := time.Since(start)
	metrics.CypherDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.CypherQueries.WithLabelValues(modeLabel, "error").Inc()
		return nil, fmt.Errorf("cypher %s: %w", modeLabel, err)
	}
	metrics.CypherQueries.WithLabelValues(modeLabel, "ok").Inc()

	if c.slow > 0 && elapsed > c.slow {
		c.log.Warn().
			Dur("duration", elapsed).
			Str("cypher", cypher).
			Int("rows", len(records)).
			Msg("slow cypher query")
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = Normalize(record.Values[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func collect(ctx context.Context, session neo4j.SessionWithContext, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// Normalize converts driver values into plain Go values. Nodes become their
// property map plus IDKey; temporal values become ISO strings.
func Normalize(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		node := make(map[string]any, len(v.Props)+1)
		for k, p := range v.Props {
			node[k] = Normalize(p)
		}
		node[IDKey] = v.ElementId
		return node
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Normalize(item)
		}
		return out
	case neo4j.Date:
		return v.Time().Format("2006-01-02")
	case neo4j.LocalDateTime:
		return v.Time().Format("2006-01-02T15:04:05")
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

// NodeID returns the element id of a normalized node, or "".
func NodeID(node map[string]any) string {
	id, _ := node[IDKey].(string)
	return id
}
