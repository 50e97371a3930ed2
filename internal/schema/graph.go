package schema

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/graphdb"
	"github.com/mandawilson/smile-dashboard/internal/loader"
	"github.com/rs/zerolog"
)

// BillingChange describes one applied updateTempoBilling mutation.
type BillingChange struct {
	SampleID   string
	Billed     bool
	CostCenter string
	BilledBy   string
	UpdatedBy  string
	TempoIDs   []string
}

// BillingNotifier is told about billing changes after they are written.
type BillingNotifier interface {
	NotifyBillingChange(ctx context.Context, change BillingChange) error
}

// GraphConfig wires the graph subschema.
type GraphConfig struct {
	Runner   graphdb.Runner
	Model    *cypher.Model
	Notifier BillingNotifier
	Logger   *zerolog.Logger
}

type rootList struct {
	label  string
	plural string
}

var graphRoots = []rootList{
	{label: cypher.LabelCohort, plural: "cohorts"},
	{label: cypher.LabelSample, plural: "samples"},
}

type graphResolver struct {
	runner   graphdb.Runner
	model    *cypher.Model
	notifier BillingNotifier
	log      *zerolog.Logger
}

// NewGraphSubschema builds the Neo4j-backed root fields.
func NewGraphSubschema(cfg GraphConfig) (*Subschema, error) {
	if cfg.Runner == nil || cfg.Model == nil {
		return nil, fmt.Errorf("graph subschema needs a runner and a model")
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	r := &graphResolver{runner: cfg.Runner, model: cfg.Model, notifier: cfg.Notifier, log: logger}

	types := newGraphTypes(cfg.Model)
	types.relResolver = r.resolveRelationship
	types.cntResolver = r.resolveRelationshipCount
	types.extra[cypher.LabelSample] = func() graphql.Fields {
		return graphql.Fields{
			"latestMetadata": &graphql.Field{
				Type:    types.objects[cypher.LabelSampleMetadata],
				Resolve: r.resolveLatestMetadata,
			},
		}
	}
	types.extra[cypher.LabelSampleMetadata] = func() graphql.Fields {
		return graphql.Fields{
			loader.CancerTypeKey: &graphql.Field{
				Type:    graphql.String,
				Resolve: resolveCancerType(loader.CancerTypeKey),
			},
			loader.CancerTypeDetailedKey: &graphql.Field{
				Type:    graphql.String,
				Resolve: resolveCancerType(loader.CancerTypeDetailedKey),
			},
		}
	}
	types.build()

	query := graphql.Fields{}
	for _, root := range graphRoots {
		query[root.plural] = &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(types.objects[root.label]))),
			Args: graphql.FieldConfigArgument{
				"where":   &graphql.ArgumentConfig{Type: types.wheres[root.label]},
				"options": &graphql.ArgumentConfig{Type: types.options[root.label]},
			},
			Resolve: r.resolveNodes(root.label),
		}
		query[root.plural+"Connection"] = &graphql.Field{
			Type: graphql.NewNonNull(types.connectionType(upperFirst(root.plural) + "Connection")),
			Args: graphql.FieldConfigArgument{
				"where": &graphql.ArgumentConfig{Type: types.wheres[root.label]},
			},
			Resolve: r.resolveCount(root.label),
		}
	}

	mutation := graphql.Fields{
		"updateTempoBilling": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(types.objects[cypher.LabelTempo]))),
			Description: "Sets the billing state of every Tempo record of a sample.",
			Args: graphql.FieldConfigArgument{
				"sampleId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"billed":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
				"costCenter": &graphql.ArgumentConfig{Type: graphql.String},
				"billedBy":   &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: r.resolveUpdateTempoBilling,
		},
	}

	return &Subschema{Name: "neo4j", Query: query, Mutation: mutation}, nil
}

func (r *graphResolver) resolveNodes(label string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if _, err := RequireAuth(p.Context); err != nil {
			return nil, err
		}

		where, options := argMap(p.Args, "where"), argMap(p.Args, "options")
		opts, err := r.model.ParseOptions(label, options)
		if err != nil {
			return nil, badRequest(err)
		}
		q, err := r.model.MatchNodes(label, where, opts)
		if err != nil {
			return nil, badRequest(err)
		}

		rows, err := r.runner.Read(p.Context, q.Cypher, q.Params)
		if err != nil {
			return nil, r.storeError(err, label)
		}

		nodes := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			if node, ok := row["n"].(map[string]any); ok {
				nodes = append(nodes, node)
			}
		}
		return nodes, nil
	}
}

func (r *graphResolver) resolveCount(label string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if _, err := RequireAuth(p.Context); err != nil {
			return nil, err
		}

		q, err := r.model.CountNodes(label, argMap(p.Args, "where"))
		if err != nil {
			return nil, badRequest(err)
		}
		rows, err := r.runner.Read(p.Context, q.Cypher, q.Params)
		if err != nil {
			return nil, r.storeError(err, label)
		}

		var total any = int64(0)
		if len(rows) > 0 {
			total = rows[0]["totalCount"]
		}
		return map[string]any{"totalCount": total}, nil
	}
}

func (r *graphResolver) resolveRelationship(label string, rel cypher.Relationship) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		rc, err := RequireAuth(p.Context)
		if err != nil {
			return nil, err
		}
		parentID, err := sourceID(p.Source)
		if err != nil {
			return nil, err
		}

		where, options := argMap(p.Args, "where"), argMap(p.Args, "options")
		if err := r.validate(rel.Target, where, options); err != nil {
			return nil, badRequest(err)
		}

		key, err := loader.NewRelationKey(label, rel.Field, parentID, where, options)
		if err != nil {
			return nil, badRequest(err)
		}
		thunk := rc.Loaders.Relations.Load(p.Context, key)
		return deferred(p, func() (interface{}, error) {
			nodes, err := thunk()
			if err != nil {
				return nil, r.storeError(err, label+"."+rel.Field)
			}
			return nodes, nil
		}), nil
	}
}

func (r *graphResolver) resolveRelationshipCount(label string, rel cypher.Relationship) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		rc, err := RequireAuth(p.Context)
		if err != nil {
			return nil, err
		}
		parentID, err := sourceID(p.Source)
		if err != nil {
			return nil, err
		}

		var where map[string]any
		if connWhere := argMap(p.Args, "where"); connWhere != nil {
			where, _ = connWhere["node"].(map[string]any)
		}
		if err := r.validate(rel.Target, where, nil); err != nil {
			return nil, badRequest(err)
		}

		key, err := loader.NewRelationKey(label, rel.Field, parentID, where, nil)
		if err != nil {
			return nil, badRequest(err)
		}
		thunk := rc.Loaders.Counts.Load(p.Context, key)
		return deferred(p, func() (interface{}, error) {
			count, err := thunk()
			if err != nil {
				return nil, r.storeError(err, label+"."+rel.Field+"Connection")
			}
			return map[string]any{"totalCount": count}, nil
		}), nil
	}
}

func (r *graphResolver) resolveLatestMetadata(p graphql.ResolveParams) (interface{}, error) {
	rc, err := RequireAuth(p.Context)
	if err != nil {
		return nil, err
	}
	sampleID, err := sourceID(p.Source)
	if err != nil {
		return nil, err
	}

	thunk := rc.Loaders.LatestMetadata.Load(p.Context, sampleID)
	return deferred(p, func() (interface{}, error) {
		metadata, err := thunk()
		if err != nil {
			return nil, r.storeError(err, "Sample.latestMetadata")
		}
		if metadata == nil {
			return nil, nil
		}
		return metadata, nil
	}), nil
}

// deferred wraps a loader read as a graphql-go thunk, so every sibling
// queues its key before the first batch runs. graphql-go drops the
// extensions of an error a thunk returns; failures are raised as located
// errors carrying the original instead.
func deferred(p graphql.ResolveParams, fn func() (interface{}, error)) func() (interface{}, error) {
	return func() (interface{}, error) {
		v, err := fn()
		if err != nil {
			panic(gqlerrors.NewErrorWithPath(
				err.Error(),
				graphql.FieldASTsToNodeASTs(p.Info.FieldASTs),
				"",
				nil,
				nil,
				p.Info.Path.AsArray(),
				err,
			))
		}
		return v, nil
	}
}

// resolveCancerType reads a value the loader already derived, falling back
// to the request's oncotree cache for metadata loaded by other paths.
func resolveCancerType(key string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		metadata, ok := p.Source.(map[string]any)
		if !ok {
			return nil, nil
		}
		if v, ok := metadata[key]; ok {
			return v, nil
		}
		rc, ok := FromContext(p.Context)
		if !ok || rc.Oncotree == nil {
			return nil, nil
		}
		code, _ := metadata["oncotreeCode"].(string)
		term, found := rc.Oncotree.Lookup(code)
		if !found {
			return nil, nil
		}
		if key == loader.CancerTypeKey {
			return term.MainType, nil
		}
		return term.Name, nil
	}
}

func (r *graphResolver) resolveUpdateTempoBilling(p graphql.ResolveParams) (interface{}, error) {
	rc, err := RequireAuth(p.Context)
	if err != nil {
		return nil, err
	}

	sampleID, _ := p.Args["sampleId"].(string)
	billed, _ := p.Args["billed"].(bool)
	costCenter, _ := p.Args["costCenter"].(string)
	billedBy, _ := p.Args["billedBy"].(string)
	if billedBy == "" {
		billedBy = rc.User.Email
	}

	props := map[string]any{"billed": billed, "billedBy": billedBy}
	if costCenter != "" {
		props["costCenter"] = costCenter
	}

	q, err := r.model.SetProperties(cypher.LabelTempo, cypher.Where{
		cypher.FieldTempoSamples + "_SOME": map[string]any{"smileSampleId": sampleID},
	}, props)
	if err != nil {
		return nil, badRequest(err)
	}

	rows, err := r.runner.Write(p.Context, q.Cypher, q.Params)
	if err != nil {
		return nil, r.storeError(err, "updateTempoBilling")
	}
	if len(rows) == 0 {
		return nil, errs.NewNotFoundError(fmt.Sprintf("No Tempo record found for sample %s", sampleID), true, nil)
	}

	tempos := make([]map[string]any, 0, len(rows))
	change := BillingChange{
		SampleID:   sampleID,
		Billed:     billed,
		CostCenter: costCenter,
		BilledBy:   billedBy,
		UpdatedBy:  rc.User.Email,
	}
	for _, row := range rows {
		if node, ok := row["n"].(map[string]any); ok {
			tempos = append(tempos, node)
			change.TempoIDs = append(change.TempoIDs, graphdb.NodeID(node))
		}
	}

	r.log.Info().
		Str("sample_id", sampleID).
		Bool("billed", billed).
		Str("user_id", rc.User.ID).
		Int("tempos", len(tempos)).
		Msg("tempo billing updated")

	if r.notifier != nil {
		if err := r.notifier.NotifyBillingChange(p.Context, change); err != nil {
			r.log.Error().Err(err).Str("sample_id", sampleID).Msg("failed to queue billing notification")
		}
	}

	return tempos, nil
}

// validate compiles arguments up front so a bad filter is reported as a
// client error instead of failing the whole batch.
func (r *graphResolver) validate(label string, where, options map[string]any) error {
	if _, err := cypher.NewCompiler(r.model).Where(label, "n", where); err != nil {
		return err
	}
	_, err := r.model.ParseOptions(label, options)
	return err
}

func (r *graphResolver) storeError(err error, what string) error {
	r.log.Error().Err(err).Str("field", what).Msg("graph query failed")
	return errs.NewServiceUnavailableError("The graph database could not answer this request")
}

func badRequest(err error) error {
	return errs.NewBadRequestError(err.Error(), true, nil, nil, nil)
}

func argMap(args map[string]interface{}, name string) map[string]any {
	m, _ := args[name].(map[string]interface{})
	return m
}

func sourceID(source interface{}) (string, error) {
	node, ok := source.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected source %T", source)
	}
	id := graphdb.NodeID(node)
	if id == "" {
		return "", fmt.Errorf("source node has no id")
	}
	return id, nil
}
