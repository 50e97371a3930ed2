package search

import (
	"testing"

	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"CCS_1", []string{"CCS_1"}},
		{"a, b,c", []string{"a", "b", "c"}},
		{"a\tb\n c", []string{"a", "b", "c"}},
		{",,a,,", []string{"a"}},
		{"b a b", []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSearch(tt.input))
		})
	}
}

func TestCohortFilterWhere(t *testing.T) {
	assert.Nil(t, CohortFilterWhere(nil))

	t.Run("single token uses containment", func(t *testing.T) {
		got := CohortFilterWhere([]string{"CCS"})
		require.Len(t, got, 8)
		assert.Equal(t, Where{"cohortId_CONTAINS": "CCS"}, got[0])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"type_CONTAINS": "CCS"}}, got[1])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"endUsers_INCLUDES": "CCS"}}, got[2])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"pmUsers_INCLUDES": "CCS"}}, got[3])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"date_CONTAINS": "CCS"}}, got[7])
	})

	t.Run("several tokens use set membership", func(t *testing.T) {
		got := CohortFilterWhere([]string{"a", "b"})
		require.Len(t, got, 8)
		assert.Equal(t, Where{"cohortId_IN": []any{"a", "b"}}, got[0])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"endUsers_INCLUDES": "a"}}, got[2])
		assert.Equal(t, Where{"hasCohortCompleteCohortCompletes_SOME": Where{"projectTitle_IN": []any{"a", "b"}}}, got[4])
	})
}

func TestSampleFilterWhere(t *testing.T) {
	assert.Nil(t, SampleFilterWhere([]string{}))

	got := SampleFilterWhere([]string{"P-1"})
	require.Len(t, got, 9)
	assert.Equal(t, Where{"hasMetadataSampleMetadata_SOME": Where{"primaryId_CONTAINS": "P-1"}}, got[0])
	assert.Equal(t, Where{"hasTempoTempos_SOME": Where{"costCenter_CONTAINS": "P-1"}}, got[8])

	many := SampleFilterWhere([]string{"x", "y"})
	assert.Equal(t, Where{"hasMetadataSampleMetadata_SOME": Where{"oncotreeCode_IN": []any{"x", "y"}}}, many[6])
}

func TestBilledFilterWhere(t *testing.T) {
	assert.Nil(t, BilledFilterWhere(nil, false))
	assert.Equal(t, Where{"cohortId": "No data"}, BilledFilterWhere(nil, true))
	assert.Nil(t, BilledFilterWhere([]string{"Yes", "No"}, true))

	assert.Equal(t,
		Where{"hasCohortSampleSamples_ALL": Where{"hasTempoTempos_ALL": Where{"billed": true}}},
		BilledFilterWhere([]string{"Yes"}, true))

	assert.Equal(t,
		Where{"OR": []any{
			Where{"hasCohortSampleSamples_NONE": Where{"hasTempoTempos_ALL": Where{"billed": true}}},
			Where{"hasCohortSampleSamples_SOME": Where{"hasTempoTempos_ALL": Where{"billed": false}}},
		}},
		BilledFilterWhere([]string{"No"}, true))
}

func TestClause(t *testing.T) {
	assert.Nil(t, Clause(nil, nil))

	preds := []Where{{"cohortId_CONTAINS": "a"}}
	assert.Equal(t, Where{"OR": []any{Where{"cohortId_CONTAINS": "a"}}}, Clause(preds, nil))

	merged := Clause(preds, Where{"cohortId": "No data"})
	assert.Equal(t, "No data", merged["cohortId"])
	assert.Contains(t, merged, "OR")

	both := Clause(preds, BilledFilterWhere([]string{"No"}, true))
	assert.NotContains(t, both, "OR")
	require.Contains(t, both, "AND")
	assert.Len(t, both["AND"], 2)
}

// The builders only emit keys the compiler accepts.
func TestClausesCompile(t *testing.T) {
	model := cypher.SmileModel()

	cohorts := Clause(CohortFilterWhere([]string{"a", "b"}), BilledFilterWhere([]string{"No"}, true))
	_, err := cypher.NewCompiler(model).Where(cypher.LabelCohort, "n", cohorts)
	require.NoError(t, err)

	samples := Clause(SampleFilterWhere([]string{"a"}), CohortSamplesWhere("CCS_1"))
	_, err = cypher.NewCompiler(model).Where(cypher.LabelSample, "n", samples)
	require.NoError(t, err)
}

func TestHeaders(t *testing.T) {
	headers := Headers(CohortColumns)
	assert.Equal(t, "Cohort ID", headers[0])
	assert.Len(t, headers, len(CohortColumns))
}
