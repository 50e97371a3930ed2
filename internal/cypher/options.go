package cypher

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SortField orders results by one property.
type SortField struct {
	Field string
	Desc  bool
}

// Options is a decoded GraphQL `options` argument.
type Options struct {
	Limit  *int
	Offset *int
	Sort   []SortField
}

// ParseOptions validates raw against the properties of label.
//
//	{limit: 20, offset: 40, sort: [{date: DESC}]}
func (m *Model) ParseOptions(label string, raw map[string]any) (Options, error) {
	var opts Options
	node := m.Node(label)
	if node == nil {
		return opts, fmt.Errorf("unknown label %q", label)
	}

	for key, value := range raw {
		switch key {
		case "limit":
			n, err := toNonNegativeInt(key, value)
			if err != nil {
				return opts, err
			}
			opts.Limit = n
		case "offset":
			n, err := toNonNegativeInt(key, value)
			if err != nil {
				return opts, err
			}
			opts.Offset = n
		case "sort":
			sorts, err := parseSort(node, value)
			if err != nil {
				return opts, err
			}
			opts.Sort = sorts
		default:
			return opts, fmt.Errorf("unknown option %q", key)
		}
	}
	return opts, nil
}

// Clause renders ORDER BY / SKIP / LIMIT for variable, with a leading
// space, or "" when no option is set. Values are validated integers, so
// they are inlined rather than parameterized.
func (o Options) Clause(variable string) string {
	var b strings.Builder
	if len(o.Sort) > 0 {
		terms := make([]string, len(o.Sort))
		for i, s := range o.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			terms[i] = fmt.Sprintf("%s.%s %s", variable, s.Field, dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	if o.Offset != nil {
		fmt.Fprintf(&b, " SKIP %d", *o.Offset)
	}
	if o.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *o.Limit)
	}
	return b.String()
}

func parseSort(node *Node, value any) ([]SortField, error) {
	var items []any
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("option sort expects a list, got %T", value)
	}

	var out []SortField
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("option sort expects objects, got %T", item)
		}
		// One entry may name several fields; keep their order stable.
		fields := make([]string, 0, len(entry))
		for f := range entry {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, f := range fields {
			if _, ok := node.Fields[f]; !ok {
				return nil, fmt.Errorf("cannot sort %s by %q", node.Label, f)
			}
			dir, _ := entry[f].(string)
			switch dir {
			case "ASC":
				out = append(out, SortField{Field: f})
			case "DESC":
				out = append(out, SortField{Field: f, Desc: true})
			default:
				return nil, fmt.Errorf("sort direction for %q must be ASC or DESC", f)
			}
		}
	}
	return out, nil
}

func toNonNegativeInt(key string, value any) (*int, error) {
	var n int
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("option %s must be an integer", key)
		}
		n = int(v)
	default:
		return nil, fmt.Errorf("option %s must be an integer, got %T", key, value)
	}
	if n < 0 {
		return nil, fmt.Errorf("option %s must be non-negative", key)
	}
	return &n, nil
}
