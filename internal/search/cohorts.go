package search

import "github.com/mandawilson/smile-dashboard/internal/cypher"

var cohortCompleteStringFields = []string{"type", "projectTitle", "projectSubtitle", "status", "date"}

// CohortFilterWhere returns one predicate per searchable cohort field, or
// nil when there are no tokens.
func CohortFilterWhere(tokens []string) []Where {
	if len(tokens) == 0 {
		return nil
	}

	onComplete := func(w Where) Where {
		return Where{cypher.FieldCohortCompletes + "_SOME": w}
	}

	out := []Where{
		stringPredicate("cohortId", tokens),
		onComplete(stringPredicate("type", tokens)),
		onComplete(includesPredicate("endUsers", tokens)),
		onComplete(includesPredicate("pmUsers", tokens)),
	}
	for _, field := range cohortCompleteStringFields[1:] {
		out = append(out, onComplete(stringPredicate(field, tokens)))
	}
	return out
}

// Billed filter values offered by the cohorts grid.
const (
	BilledYes = "Yes"
	BilledNo  = "No"
)

// BilledFilterWhere filters cohorts by the billing state of their samples.
//
//   - "Yes": every sample has only billed tempos.
//   - "No": no sample is fully billed, or some sample has unbilled tempos.
//   - active with no values: matches nothing.
//   - inactive or both values: no filter.
func BilledFilterWhere(values []string, active bool) Where {
	if !active {
		return nil
	}
	if len(values) == 0 {
		return Where{"cohortId": "No data"}
	}

	allTempos := func(billed bool) Where {
		return Where{cypher.FieldSampleTempos + "_ALL": Where{"billed": billed}}
	}

	switch values[0] {
	case BilledYes:
		if len(values) > 1 {
			return nil
		}
		return Where{cypher.FieldCohortSamples + "_ALL": allTempos(true)}
	case BilledNo:
		if len(values) > 1 {
			return nil
		}
		return Where{"OR": []any{
			Where{cypher.FieldCohortSamples + "_NONE": allTempos(true)},
			Where{cypher.FieldCohortSamples + "_SOME": allTempos(false)},
		}}
	default:
		return nil
	}
}
