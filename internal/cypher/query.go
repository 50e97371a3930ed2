package cypher

import "fmt"

// IDsParam is the parameter holding parent element ids in batched
// relationship queries.
const IDsParam = "ids"

// Query is a ready-to-run Cypher statement.
type Query struct {
	Cypher string
	Params map[string]any
}

// MatchNodes selects nodes of label.
//
//	MATCH (n:Cohort) WHERE ... RETURN n ORDER BY n.cohortId ASC LIMIT 20
func (m *Model) MatchNodes(label string, where Where, opts Options) (Query, error) {
	c := NewCompiler(m)
	predicate, err := c.Where(label, "n", where)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Cypher: fmt.Sprintf("MATCH (n:%s)%s RETURN n%s", label, whereClause(predicate), opts.Clause("n")),
		Params: c.Params(),
	}, nil
}

// CountNodes counts nodes of label matching where, returned as totalCount.
func (m *Model) CountNodes(label string, where Where) (Query, error) {
	c := NewCompiler(m)
	predicate, err := c.Where(label, "n", where)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Cypher: fmt.Sprintf("MATCH (n:%s)%s RETURN count(n) AS totalCount", label, whereClause(predicate)),
		Params: c.Params(),
	}, nil
}

// MatchRelated loads one relationship field for many parents at once.
// Options apply per parent. Each row carries parentId and the collected
// nodes list.
func (m *Model) MatchRelated(parentLabel, field string, ids []string, where Where, opts Options) (Query, error) {
	rel, err := m.relationship(parentLabel, field)
	if err != nil {
		return Query{}, err
	}

	c := NewCompiler(m)
	predicate, err := c.Where(rel.Target, "n", where)
	if err != nil {
		return Query{}, err
	}

	params := c.Params()
	params[IDsParam] = ids

	return Query{
		Cypher: fmt.Sprintf(
			"UNWIND $%s AS parentId MATCH (p:%s) WHERE elementId(p) = parentId "+
				"CALL { WITH p MATCH %s%s RETURN n%s } "+
				"RETURN parentId, collect(n) AS nodes",
			IDsParam, parentLabel, rel.Pattern("p", "n"), whereClause(predicate), opts.Clause("n")),
		Params: params,
	}, nil
}

// CountRelated counts one relationship field for many parents at once.
// Each row carries parentId and totalCount.
func (m *Model) CountRelated(parentLabel, field string, ids []string, where Where) (Query, error) {
	rel, err := m.relationship(parentLabel, field)
	if err != nil {
		return Query{}, err
	}

	c := NewCompiler(m)
	predicate, err := c.Where(rel.Target, "n", where)
	if err != nil {
		return Query{}, err
	}

	params := c.Params()
	params[IDsParam] = ids

	return Query{
		Cypher: fmt.Sprintf(
			"UNWIND $%s AS parentId MATCH (p:%s) WHERE elementId(p) = parentId "+
				"CALL { WITH p OPTIONAL MATCH %s%s RETURN count(n) AS totalCount } "+
				"RETURN parentId, totalCount",
			IDsParam, parentLabel, rel.Pattern("p", "n"), whereClause(predicate)),
		Params: params,
	}, nil
}

// SetProperties updates every node of label matching where and returns the
// updated nodes.
func (m *Model) SetProperties(label string, where Where, props map[string]any) (Query, error) {
	node := m.Node(label)
	if node == nil {
		return Query{}, fmt.Errorf("unknown label %q", label)
	}
	for k := range props {
		if _, ok := node.Fields[k]; !ok {
			return Query{}, fmt.Errorf("%s has no property %q", label, k)
		}
	}
	if len(where) == 0 {
		return Query{}, fmt.Errorf("refusing to update every %s", label)
	}

	c := NewCompiler(m)
	predicate, err := c.Where(label, "n", where)
	if err != nil {
		return Query{}, err
	}
	placeholder := c.Param(props)

	return Query{
		Cypher: fmt.Sprintf("MATCH (n:%s)%s SET n += %s RETURN n", label, whereClause(predicate), placeholder),
		Params: c.Params(),
	}, nil
}

func (m *Model) relationship(label, field string) (Relationship, error) {
	node := m.Node(label)
	if node == nil {
		return Relationship{}, fmt.Errorf("unknown label %q", label)
	}
	rel, ok := node.Relationships[field]
	if !ok {
		return Relationship{}, fmt.Errorf("%s has no relationship %q", label, field)
	}
	return rel, nil
}

func whereClause(predicate string) string {
	if predicate == "" {
		return ""
	}
	return " WHERE " + predicate
}
