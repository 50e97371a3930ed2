package loader

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/graphdb"
	"github.com/mandawilson/smile-dashboard/internal/metrics"
)

// Keys added to a metadata node from the oncotree taxonomy.
const (
	CancerTypeKey         = "cancerType"
	CancerTypeDetailedKey = "cancerTypeDetailed"
)

var latestFirst = cypher.Options{
	Sort:  []cypher.SortField{{Field: "importDate", Desc: true}},
	Limit: intPtr(1),
}

type metadataBatcher struct {
	runner graphdb.Runner
	model  *cypher.Model
	terms  TermLookup
}

// load returns the most recently imported metadata of each sample, or nil
// for samples without metadata.
func (b *metadataBatcher) load(ctx context.Context, sampleIDs []string) []*dataloader.Result[map[string]any] {
	metrics.LoaderBatchSize.WithLabelValues("latest_metadata").Observe(float64(len(sampleIDs)))

	results := make([]*dataloader.Result[map[string]any], len(sampleIDs))

	latest, err := b.queryLatest(ctx, sampleIDs)
	for i, id := range sampleIDs {
		if err != nil {
			results[i] = &dataloader.Result[map[string]any]{Error: err}
			continue
		}
		results[i] = &dataloader.Result[map[string]any]{Data: latest[id]}
	}
	return results
}

func (b *metadataBatcher) queryLatest(ctx context.Context, sampleIDs []string) (map[string]map[string]any, error) {
	q, err := b.model.MatchRelated(cypher.LabelSample, cypher.FieldSampleMetadata, sampleIDs, nil, latestFirst)
	if err != nil {
		return nil, err
	}
	rows, err := b.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		parentID, _ := row["parentId"].(string)
		if nodes := toNodes(row["nodes"]); len(nodes) > 0 {
			latest[parentID] = Enrich(nodes[0], b.terms)
		}
	}
	return latest, nil
}

// Enrich adds cancer types derived from the node's oncotreeCode. Unknown
// codes leave the keys unset.
func Enrich(metadata map[string]any, terms TermLookup) map[string]any {
	if metadata == nil || terms == nil {
		return metadata
	}
	code, _ := metadata["oncotreeCode"].(string)
	if term, ok := terms.Lookup(code); ok {
		metadata[CancerTypeKey] = term.MainType
		metadata[CancerTypeDetailedKey] = term.Name
	}
	return metadata
}

func intPtr(n int) *int {
	return &n
}
