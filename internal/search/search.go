// Package search translates the dashboard's free-text search box and column
// filters into GraphQL `where` clauses.
//
// The token count decides the clause shape: several tokens match fields
// exactly (IN), a single token matches by substring (CONTAINS), and list
// fields always match by inclusion of the first token.
package search

import (
	"strings"
	"unicode"

	"github.com/mandawilson/smile-dashboard/internal/cypher"
)

// Where is a GraphQL `where` value.
type Where = cypher.Where

// ParseSearch splits input on commas and whitespace. Empty tokens are
// dropped and duplicates keep their first position.
func ParseSearch(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// Clause combines the search predicates with page-specific filters into
// one where value: {OR: predicates, ...custom}. Either part may be empty.
func Clause(predicates []Where, custom Where) Where {
	out := Where{}
	if len(predicates) > 0 {
		or := make([]any, len(predicates))
		for i, p := range predicates {
			or[i] = p
		}
		out["OR"] = or
	}
	for k, v := range custom {
		if k == "OR" {
			if _, taken := out["OR"]; taken {
				// Both sides need an OR: nest them under AND.
				out["AND"] = []any{Where{"OR": out["OR"]}, Where{"OR": v}}
				delete(out, "OR")
				continue
			}
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stringPredicate matches field against the tokens by arity.
func stringPredicate(field string, tokens []string) Where {
	if len(tokens) > 1 {
		return Where{field + "_IN": anyList(tokens)}
	}
	return Where{field + "_CONTAINS": tokens[0]}
}

// includesPredicate matches a list field containing the first token.
func includesPredicate(field string, tokens []string) Where {
	return Where{field + "_INCLUDES": tokens[0]}
}

func anyList(tokens []string) []any {
	out := make([]any, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}
