package cypher

import (
	"fmt"
	"sort"
	"strings"
)

// Where is a decoded GraphQL `where` argument.
type Where = map[string]any

type operator struct {
	suffix string
	render func(prop, param string) string
	list   bool
}

var (
	opEq          = operator{"", func(p, v string) string { return p + " = " + v }, false}
	opNot         = operator{"_NOT", func(p, v string) string { return p + " <> " + v }, false}
	opIn          = operator{"_IN", func(p, v string) string { return p + " IN " + v }, true}
	opNotIn       = operator{"_NOT_IN", func(p, v string) string { return "NOT " + p + " IN " + v }, true}
	opContains    = operator{"_CONTAINS", func(p, v string) string { return p + " CONTAINS " + v }, false}
	opNotContains = operator{"_NOT_CONTAINS", func(p, v string) string { return "NOT " + p + " CONTAINS " + v }, false}
	opStartsWith  = operator{"_STARTS_WITH", func(p, v string) string { return p + " STARTS WITH " + v }, false}
	opEndsWith    = operator{"_ENDS_WITH", func(p, v string) string { return p + " ENDS WITH " + v }, false}
	opIncludes    = operator{"_INCLUDES", func(p, v string) string { return v + " IN " + p }, false}
	opNotIncludes = operator{"_NOT_INCLUDES", func(p, v string) string { return "NOT " + v + " IN " + p }, false}
	opLT          = operator{"_LT", func(p, v string) string { return p + " < " + v }, false}
	opLTE         = operator{"_LTE", func(p, v string) string { return p + " <= " + v }, false}
	opGT          = operator{"_GT", func(p, v string) string { return p + " > " + v }, false}
	opGTE         = operator{"_GTE", func(p, v string) string { return p + " >= " + v }, false}
)

var operatorsByKind = map[Kind][]operator{
	KindString:     {opEq, opNot, opIn, opNotIn, opContains, opNotContains, opStartsWith, opEndsWith},
	KindStringList: {opEq, opNot, opIncludes, opNotIncludes},
	KindBool:       {opEq, opNot},
	KindInt:        {opEq, opNot, opIn, opNotIn, opLT, opLTE, opGT, opGTE},
	KindFloat:      {opEq, opNot, opIn, opNotIn, opLT, opLTE, opGT, opGTE},
}

// Quantifiers accepted on relationship and connection filters, mapped to
// the Cypher list predicate that implements them.
var quantifiers = map[string]string{
	"SOME":   "any",
	"NONE":   "none",
	"ALL":    "all",
	"SINGLE": "single",
}

// OperatorSuffixes lists the filter suffixes a property of kind k accepts.
func OperatorSuffixes(k Kind) []string {
	ops := operatorsByKind[k]
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.suffix
	}
	return out
}

// Compiler turns `where` values into Cypher predicates. Parameters are
// collected across calls so one Compiler serves one statement.
type Compiler struct {
	model  *Model
	params map[string]any
	nParam int
	nVar   int
}

func NewCompiler(model *Model) *Compiler {
	return &Compiler{model: model, params: map[string]any{}}
}

// Params returns the parameters referenced by everything compiled so far.
func (c *Compiler) Params() map[string]any {
	return c.params
}

// Param registers value and returns its placeholder.
func (c *Compiler) Param(value any) string {
	name := fmt.Sprintf("p%d", c.nParam)
	c.nParam++
	c.params[name] = value
	return "$" + name
}

func (c *Compiler) freshVar(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, c.nVar)
	c.nVar++
	return name
}

// Where compiles where for a node of label bound to variable. An empty or
// nil where compiles to "".
func (c *Compiler) Where(label, variable string, where Where) (string, error) {
	node := c.model.Node(label)
	if node == nil {
		return "", fmt.Errorf("unknown label %q", label)
	}
	return c.compile(node, variable, where)
}

func (c *Compiler) compile(node *Node, variable string, where Where) (string, error) {
	if len(where) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		part, err := c.compileKey(node, variable, key, where[key])
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	return joinPredicates(parts, "AND"), nil
}

func (c *Compiler) compileKey(node *Node, variable, key string, value any) (string, error) {
	switch key {
	case "AND", "OR":
		return c.compileLogical(node, variable, key, value)
	case "NOT":
		inner, err := c.compileNested(node, variable, key, value)
		if err != nil || inner == "" {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	}

	if field, quantifier, ok := splitConnection(node, key); ok {
		return c.compileConnection(variable, key, field, quantifier, value)
	}

	if field, quantifier, ok := splitRelationship(node, key); ok {
		where, err := asWhere(key, value)
		if err != nil {
			return "", err
		}
		return c.compileRelationship(variable, field, quantifier, where)
	}

	field, op, ok := splitField(node, key)
	if !ok {
		return "", fmt.Errorf("unknown filter %q on %s", key, node.Label)
	}
	return c.compileScalar(variable, field, op, key, value)
}

func (c *Compiler) compileLogical(node *Node, variable, key string, value any) (string, error) {
	items, err := asWhereList(key, value)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		part, err := c.compile(node, variable, item)
		if err != nil {
			return "", err
		}
		if part == "" {
			// An empty OR branch matches every node.
			if key == "OR" {
				return "", nil
			}
			continue
		}
		parts = append(parts, part)
	}
	return joinPredicates(parts, key), nil
}

func (c *Compiler) compileNested(node *Node, variable, key string, value any) (string, error) {
	where, err := asWhere(key, value)
	if err != nil {
		return "", err
	}
	return c.compile(node, variable, where)
}

func (c *Compiler) compileScalar(variable, field string, op operator, key string, value any) (string, error) {
	prop := variable + "." + field

	if value == nil {
		switch op.suffix {
		case "":
			return prop + " IS NULL", nil
		case "_NOT":
			return prop + " IS NOT NULL", nil
		default:
			return "", fmt.Errorf("filter %q does not accept null", key)
		}
	}

	if op.list {
		list, ok := toList(value)
		if !ok {
			return "", fmt.Errorf("filter %q expects a list", key)
		}
		value = list
	}

	return op.render(prop, c.Param(value)), nil
}

func (c *Compiler) compileRelationship(variable string, rel Relationship, quantifier string, where Where) (string, error) {
	target := c.model.Node(rel.Target)
	member := c.freshVar("m")
	bound := c.freshVar("r")

	predicate, err := c.compile(target, member, where)
	if err != nil {
		return "", err
	}
	if predicate == "" {
		predicate = "true"
	}

	return fmt.Sprintf("%s(%s IN [%s | %s] WHERE %s)",
		quantifiers[quantifier], member, rel.Pattern(variable, bound), bound, predicate), nil
}

func (c *Compiler) compileConnection(variable, key string, rel Relationship, quantifier string, value any) (string, error) {
	where, err := asWhere(key, value)
	if err != nil {
		return "", err
	}

	var nodeWhere Where
	for k, v := range where {
		switch k {
		case "node":
			if nodeWhere, err = asWhere(key+".node", v); err != nil {
				return "", err
			}
		case "edge":
			if v != nil {
				return "", fmt.Errorf("filter %q: relationship properties are not filterable", key)
			}
		default:
			return "", fmt.Errorf("unknown filter %q on %s", k, key)
		}
	}

	return c.compileRelationship(variable, rel, quantifier, nodeWhere)
}

// splitConnection matches "<rel>Connection_<Q>" and "<rel>Connection".
func splitConnection(node *Node, key string) (Relationship, string, bool) {
	for _, name := range node.RelationshipNames() {
		prefix := name + "Connection"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if rest == "" {
			return node.Relationships[name], "SOME", true
		}
		if q := strings.TrimPrefix(rest, "_"); q != rest {
			if _, ok := quantifiers[q]; ok {
				return node.Relationships[name], q, true
			}
		}
	}
	return Relationship{}, "", false
}

// splitRelationship matches "<rel>_<Q>" and a bare "<rel>", which means SOME.
func splitRelationship(node *Node, key string) (Relationship, string, bool) {
	if rel, ok := node.Relationships[key]; ok {
		return rel, "SOME", true
	}
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return Relationship{}, "", false
	}
	rel, ok := node.Relationships[key[:i]]
	if !ok {
		return Relationship{}, "", false
	}
	if _, ok := quantifiers[key[i+1:]]; !ok {
		return Relationship{}, "", false
	}
	return rel, key[i+1:], true
}

// splitField matches "<property><suffix>" using the operators the
// property's kind allows.
func splitField(node *Node, key string) (string, operator, bool) {
	if kind, ok := node.Fields[key]; ok {
		return key, operatorsByKind[kind][0], true
	}
	for field, kind := range node.Fields {
		if !strings.HasPrefix(key, field+"_") {
			continue
		}
		suffix := key[len(field):]
		for _, op := range operatorsByKind[kind] {
			if op.suffix == suffix {
				return field, op, true
			}
		}
	}
	return "", operator{}, false
}

func joinPredicates(parts []string, glue string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " "+glue+" ") + ")"
}

func asWhere(key string, value any) (Where, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("filter %q expects an object, got %T", key, value)
	}
}

func asWhereList(key string, value any) ([]Where, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []Where:
		return v, nil
	case []any:
		out := make([]Where, 0, len(v))
		for _, item := range v {
			w, err := asWhere(key, item)
			if err != nil {
				return nil, err
			}
			if w != nil {
				out = append(out, w)
			}
		}
		return out, nil
	case map[string]any:
		// GraphQL input coercion accepts a single object for a list.
		return []Where{v}, nil
	default:
		return nil, fmt.Errorf("filter %q expects a list of objects, got %T", key, value)
	}
}

func toList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
