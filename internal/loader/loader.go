// Package loader provides the request-scoped batching loaders used by the
// graph resolvers. A fresh Loaders is built for every GraphQL request so
// the per-key cache never outlives the request.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/graphdb"
	"github.com/mandawilson/smile-dashboard/internal/metrics"
	"github.com/mandawilson/smile-dashboard/internal/oncotree"
)

// BatchWait is how long a loader collects keys before querying.
const BatchWait = 2 * time.Millisecond

// TermLookup resolves oncotree codes.
type TermLookup interface {
	Lookup(code string) (oncotree.Term, bool)
}

// Loaders bundles every loader available to one request.
type Loaders struct {
	Relations      *dataloader.Loader[RelationKey, []map[string]any]
	Counts         *dataloader.Loader[RelationKey, int64]
	LatestMetadata *dataloader.Loader[string, map[string]any]
}

type settings struct {
	wait time.Duration
}

// Option configures New.
type Option func(*settings)

// WithWait overrides BatchWait.
func WithWait(d time.Duration) Option {
	return func(s *settings) {
		s.wait = d
	}
}

// New builds the loaders for one request.
func New(runner graphdb.Runner, model *cypher.Model, terms TermLookup, opts ...Option) *Loaders {
	cfg := settings{wait: BatchWait}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &relationBatcher{runner: runner, model: model}
	m := &metadataBatcher{runner: runner, model: model, terms: terms}

	return &Loaders{
		Relations: dataloader.NewBatchedLoader(r.loadNodes,
			dataloader.WithWait[RelationKey, []map[string]any](cfg.wait)),
		Counts: dataloader.NewBatchedLoader(r.loadCounts,
			dataloader.WithWait[RelationKey, int64](cfg.wait)),
		LatestMetadata: dataloader.NewBatchedLoader(m.load,
			dataloader.WithWait[string, map[string]any](cfg.wait)),
	}
}

// RelationKey identifies one relationship field of one parent node under
// one set of arguments. Args is canonical JSON so equal arguments batch
// together.
type RelationKey struct {
	Label    string
	Field    string
	ParentID string
	Args     string
}

type relationArgs struct {
	Where   map[string]any `json:"where,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// NewRelationKey encodes where and options into a key.
func NewRelationKey(label, field, parentID string, where, options map[string]any) (RelationKey, error) {
	args, err := json.Marshal(relationArgs{Where: where, Options: options})
	if err != nil {
		return RelationKey{}, fmt.Errorf("encoding %s.%s arguments: %w", label, field, err)
	}
	return RelationKey{Label: label, Field: field, ParentID: parentID, Args: string(args)}, nil
}

// group is the part of a key shared by every key answered by one query.
type group struct {
	Label string
	Field string
	Args  string
}

func groupKeys(keys []RelationKey) (map[group][]int, []group) {
	indexes := make(map[group][]int)
	var order []group
	for i, k := range keys {
		g := group{Label: k.Label, Field: k.Field, Args: k.Args}
		if _, seen := indexes[g]; !seen {
			order = append(order, g)
		}
		indexes[g] = append(indexes[g], i)
	}
	return indexes, order
}

func (g group) decode() (relationArgs, error) {
	var args relationArgs
	if err := json.Unmarshal([]byte(g.Args), &args); err != nil {
		return args, fmt.Errorf("decoding %s.%s arguments: %w", g.Label, g.Field, err)
	}
	return args, nil
}

type relationBatcher struct {
	runner graphdb.Runner
	model  *cypher.Model
}

func (b *relationBatcher) loadNodes(ctx context.Context, keys []RelationKey) []*dataloader.Result[[]map[string]any] {
	metrics.LoaderBatchSize.WithLabelValues("relations").Observe(float64(len(keys)))

	results := make([]*dataloader.Result[[]map[string]any], len(keys))
	indexes, order := groupKeys(keys)

	for _, g := range order {
		idx := indexes[g]
		nodesByParent, err := b.queryNodes(ctx, g, parentIDs(keys, idx))
		for _, i := range idx {
			if err != nil {
				results[i] = &dataloader.Result[[]map[string]any]{Error: err}
				continue
			}
			nodes := nodesByParent[keys[i].ParentID]
			if nodes == nil {
				nodes = []map[string]any{}
			}
			results[i] = &dataloader.Result[[]map[string]any]{Data: nodes}
		}
	}
	return results
}

func (b *relationBatcher) queryNodes(ctx context.Context, g group, ids []string) (map[string][]map[string]any, error) {
	args, err := g.decode()
	if err != nil {
		return nil, err
	}
	target := b.model.Node(g.Label)
	if target == nil {
		return nil, fmt.Errorf("unknown label %q", g.Label)
	}
	rel, ok := target.Relationships[g.Field]
	if !ok {
		return nil, fmt.Errorf("%s has no relationship %q", g.Label, g.Field)
	}
	opts, err := b.model.ParseOptions(rel.Target, args.Options)
	if err != nil {
		return nil, err
	}

	q, err := b.model.MatchRelated(g.Label, g.Field, ids, args.Where, opts)
	if err != nil {
		return nil, err
	}
	rows, err := b.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]map[string]any, len(rows))
	for _, row := range rows {
		parentID, _ := row["parentId"].(string)
		out[parentID] = toNodes(row["nodes"])
	}
	return out, nil
}

func (b *relationBatcher) loadCounts(ctx context.Context, keys []RelationKey) []*dataloader.Result[int64] {
	metrics.LoaderBatchSize.WithLabelValues("counts").Observe(float64(len(keys)))

	results := make([]*dataloader.Result[int64], len(keys))
	indexes, order := groupKeys(keys)

	for _, g := range order {
		idx := indexes[g]
		counts, err := b.queryCounts(ctx, g, parentIDs(keys, idx))
		for _, i := range idx {
			if err != nil {
				results[i] = &dataloader.Result[int64]{Error: err}
				continue
			}
			results[i] = &dataloader.Result[int64]{Data: counts[keys[i].ParentID]}
		}
	}
	return results
}

func (b *relationBatcher) queryCounts(ctx context.Context, g group, ids []string) (map[string]int64, error) {
	args, err := g.decode()
	if err != nil {
		return nil, err
	}
	q, err := b.model.CountRelated(g.Label, g.Field, ids, args.Where)
	if err != nil {
		return nil, err
	}
	rows, err := b.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		parentID, _ := row["parentId"].(string)
		out[parentID] = toInt64(row["totalCount"])
	}
	return out, nil
}

func parentIDs(keys []RelationKey, idx []int) []string {
	ids := make([]string, 0, len(idx))
	seen := make(map[string]bool, len(idx))
	for _, i := range idx {
		id := keys[i].ParentID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func toNodes(value any) []map[string]any {
	list, _ := value.([]any)
	nodes := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if node, ok := item.(map[string]any); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
