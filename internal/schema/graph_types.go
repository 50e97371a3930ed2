package schema

import (
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
)

var sortDirection = graphql.NewEnum(graphql.EnumConfig{
	Name: "SortDirection",
	Values: graphql.EnumValueConfigMap{
		"ASC":  &graphql.EnumValueConfig{Value: "ASC", Description: "Ascending order"},
		"DESC": &graphql.EnumValueConfig{Value: "DESC", Description: "Descending order"},
	},
})

func totalCountFields() graphql.Fields {
	return graphql.Fields{
		"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	}
}

// graphTypes derives GraphQL object and input types from the graph model.
// Types are built lazily through thunks because relationships are cyclic.
type graphTypes struct {
	model       *cypher.Model
	objects     map[string]*graphql.Object
	wheres      map[string]*graphql.InputObject
	options     map[string]*graphql.InputObject
	connections map[string]*graphql.Object
	connWheres  map[string]*graphql.InputObject
	extra       map[string]func() graphql.Fields
	relResolver func(label string, rel cypher.Relationship) graphql.FieldResolveFn
	cntResolver func(label string, rel cypher.Relationship) graphql.FieldResolveFn
}

func newGraphTypes(model *cypher.Model) *graphTypes {
	return &graphTypes{
		model:       model,
		objects:     map[string]*graphql.Object{},
		wheres:      map[string]*graphql.InputObject{},
		options:     map[string]*graphql.InputObject{},
		connections: map[string]*graphql.Object{},
		connWheres:  map[string]*graphql.InputObject{},
		extra:       map[string]func() graphql.Fields{},
	}
}

func (t *graphTypes) build() {
	for _, label := range t.model.Labels() {
		node := t.model.Node(label)
		t.wheres[label] = t.whereType(node)
		t.options[label] = t.optionsType(node)
		t.objects[label] = t.objectType(node)
	}
}

func (t *graphTypes) objectType(node *cypher.Node) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: node.Label,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields := graphql.Fields{}
			for _, name := range node.FieldNames() {
				fields[name] = &graphql.Field{Type: outputType(node.Fields[name])}
			}
			for _, name := range node.RelationshipNames() {
				rel := node.Relationships[name]
				fields[name] = &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.objects[rel.Target]))),
					Args: graphql.FieldConfigArgument{
						"where":   &graphql.ArgumentConfig{Type: t.wheres[rel.Target]},
						"options": &graphql.ArgumentConfig{Type: t.options[rel.Target]},
					},
					Resolve: t.relResolver(node.Label, rel),
				}
				fields[name+"Connection"] = &graphql.Field{
					Type: graphql.NewNonNull(t.connectionType(node.Label + upperFirst(name) + "Connection")),
					Args: graphql.FieldConfigArgument{
						"where": &graphql.ArgumentConfig{Type: t.connectionWhereType(node.Label, rel)},
					},
					Resolve: t.cntResolver(node.Label, rel),
				}
			}
			if extra, ok := t.extra[node.Label]; ok {
				for name, f := range extra() {
					fields[name] = f
				}
			}
			return fields
		}),
	})
}

func (t *graphTypes) connectionType(name string) *graphql.Object {
	if obj, ok := t.connections[name]; ok {
		return obj
	}
	obj := graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: totalCountFields()})
	t.connections[name] = obj
	return obj
}

func (t *graphTypes) connectionWhereType(label string, rel cypher.Relationship) *graphql.InputObject {
	name := label + upperFirst(rel.Field) + "ConnectionWhere"
	if in, ok := t.connWheres[name]; ok {
		return in
	}
	in := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"node": &graphql.InputObjectFieldConfig{Type: t.wheres[rel.Target]},
			}
		}),
	})
	t.connWheres[name] = in
	return in
}

func (t *graphTypes) whereType(node *cypher.Node) *graphql.InputObject {
	name := node.Label + "Where"
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			self := t.wheres[node.Label]
			fields := graphql.InputObjectConfigFieldMap{
				"AND": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(self))},
				"OR":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(self))},
				"NOT": &graphql.InputObjectFieldConfig{Type: self},
			}
			for _, field := range node.FieldNames() {
				kind := node.Fields[field]
				for _, suffix := range cypher.OperatorSuffixes(kind) {
					fields[field+suffix] = &graphql.InputObjectFieldConfig{Type: filterInputType(kind, suffix)}
				}
			}
			for _, field := range node.RelationshipNames() {
				rel := node.Relationships[field]
				for _, q := range []string{"SOME", "NONE", "ALL", "SINGLE"} {
					fields[field+"_"+q] = &graphql.InputObjectFieldConfig{Type: t.wheres[rel.Target]}
					fields[field+"Connection_"+q] = &graphql.InputObjectFieldConfig{Type: t.connectionWhereType(node.Label, rel)}
				}
			}
			return fields
		}),
	})
}

func (t *graphTypes) optionsType(node *cypher.Node) *graphql.InputObject {
	sortFields := graphql.InputObjectConfigFieldMap{}
	for _, field := range node.FieldNames() {
		sortFields[field] = &graphql.InputObjectFieldConfig{Type: sortDirection}
	}
	sortType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   node.Label + "Sort",
		Fields: sortFields,
	})

	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: node.Label + "Options",
		Fields: graphql.InputObjectConfigFieldMap{
			"limit":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"offset": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"sort":   &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(sortType))},
		},
	})
}

func outputType(kind cypher.Kind) graphql.Output {
	switch kind {
	case cypher.KindStringList:
		return graphql.NewList(graphql.NewNonNull(graphql.String))
	case cypher.KindBool:
		return graphql.Boolean
	case cypher.KindInt:
		return graphql.Int
	case cypher.KindFloat:
		return graphql.Float
	default:
		return graphql.String
	}
}

func scalarType(kind cypher.Kind) *graphql.Scalar {
	switch kind {
	case cypher.KindBool:
		return graphql.Boolean
	case cypher.KindInt:
		return graphql.Int
	case cypher.KindFloat:
		return graphql.Float
	default:
		return graphql.String
	}
}

// filterInputType is the argument type of one filter field, e.g.
// cohortId_IN: [String!] or endUsers_INCLUDES: String.
func filterInputType(kind cypher.Kind, suffix string) graphql.Input {
	elem := scalarType(kind)
	switch {
	case kind == cypher.KindStringList && (suffix == "" || suffix == "_NOT"):
		return graphql.NewList(graphql.NewNonNull(elem))
	case suffix == "_IN" || suffix == "_NOT_IN":
		return graphql.NewList(graphql.NewNonNull(elem))
	default:
		return elem
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
