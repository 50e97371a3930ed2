package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerScalars(t *testing.T) {
	model := SmileModel()

	tests := []struct {
		name   string
		label  string
		where  Where
		want   string
		params map[string]any
	}{
		{
			name:   "equality",
			label:  LabelCohort,
			where:  Where{"cohortId": "CCS_1"},
			want:   "n.cohortId = $p0",
			params: map[string]any{"p0": "CCS_1"},
		},
		{
			name:   "contains",
			label:  LabelCohort,
			where:  Where{"cohortId_CONTAINS": "CCS"},
			want:   "n.cohortId CONTAINS $p0",
			params: map[string]any{"p0": "CCS"},
		},
		{
			name:   "in converts the list",
			label:  LabelCohort,
			where:  Where{"cohortId_IN": []any{"a", "b"}},
			want:   "n.cohortId IN $p0",
			params: map[string]any{"p0": []any{"a", "b"}},
		},
		{
			name:   "not in",
			label:  LabelCohort,
			where:  Where{"cohortId_NOT_IN": []string{"a"}},
			want:   "NOT n.cohortId IN $p0",
			params: map[string]any{"p0": []any{"a"}},
		},
		{
			name:   "list includes",
			label:  LabelCohortComplete,
			where:  Where{"endUsers_INCLUDES": "jdoe"},
			want:   "$p0 IN n.endUsers",
			params: map[string]any{"p0": "jdoe"},
		},
		{
			name:   "null equality",
			label:  LabelTempo,
			where:  Where{"billedBy": nil},
			want:   "n.billedBy IS NULL",
			params: map[string]any{},
		},
		{
			name:   "null negation",
			label:  LabelTempo,
			where:  Where{"billedBy_NOT": nil},
			want:   "n.billedBy IS NOT NULL",
			params: map[string]any{},
		},
		{
			name:   "keys are sorted and joined with AND",
			label:  LabelTempo,
			where:  Where{"costCenter_STARTS_WITH": "FND", "billed": true},
			want:   "(n.billed = $p0 AND n.costCenter STARTS WITH $p1)",
			params: map[string]any{"p0": true, "p1": "FND"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompiler(model)
			got, err := c.Where(tt.label, "n", tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.params, c.Params())
		})
	}
}

func TestCompilerLogical(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelCohort, "n", Where{
		"OR": []any{
			map[string]any{"cohortId_CONTAINS": "A"},
			map[string]any{"cohortId_CONTAINS": "B"},
		},
		"NOT": map[string]any{"cohortId": "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, "(NOT (n.cohortId = $p0) AND (n.cohortId CONTAINS $p1 OR n.cohortId CONTAINS $p2))", got)
}

func TestCompilerEmptyLogicalIsSkipped(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelCohort, "n", Where{"OR": []any{}, "AND": nil})
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = c.Where(LabelCohort, "n", nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCompilerEmptyOrBranchMatchesAll(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelCohort, "n", Where{
		"OR": []any{map[string]any{}, map[string]any{"cohortId": "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = c.Where(LabelCohort, "n", Where{
		"OR":  []any{map[string]any{}, map[string]any{"cohortId": "x"}},
		"NOT": map[string]any{"cohortId": "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "NOT (n.cohortId = $p0)", got)

	got, err = c.Where(LabelCohort, "n", Where{
		"AND": []any{map[string]any{}, map[string]any{"cohortId": "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "n.cohortId = $p0", got)
}

func TestCompilerRelationships(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelCohort, "n", Where{
		"hasCohortSampleSamples_ALL": map[string]any{
			"hasTempoTempos_ALL": map[string]any{"billed": true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"all(m0 IN [(n)-[:HAS_COHORT_SAMPLE]->(r1:Sample) | r1] WHERE "+
			"all(m2 IN [(m0)-[:HAS_TEMPO]->(r3:Tempo) | r3] WHERE m2.billed = $p0))",
		got)
	assert.Equal(t, map[string]any{"p0": true}, c.Params())
}

func TestCompilerIncomingConnection(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelSample, "n", Where{
		"cohortsHasCohortSampleConnection_SOME": map[string]any{
			"node": map[string]any{"cohortId": "CCS_1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "any(m0 IN [(n)<-[:HAS_COHORT_SAMPLE]-(r1:Cohort) | r1] WHERE m0.cohortId = $p0)", got)
}

func TestCompilerBareRelationshipMeansSome(t *testing.T) {
	c := NewCompiler(SmileModel())

	got, err := c.Where(LabelSample, "n", Where{"hasTempoTempos_NONE": nil})
	require.NoError(t, err)
	assert.Equal(t, "none(m0 IN [(n)-[:HAS_TEMPO]->(r1:Tempo) | r1] WHERE true)", got)

	c = NewCompiler(SmileModel())
	got, err = c.Where(LabelSample, "n", Where{"hasTempoTempos": map[string]any{"billed": false}})
	require.NoError(t, err)
	assert.Equal(t, "any(m0 IN [(n)-[:HAS_TEMPO]->(r1:Tempo) | r1] WHERE m0.billed = $p0)", got)
}

func TestCompilerErrors(t *testing.T) {
	tests := []struct {
		name  string
		label string
		where Where
		msg   string
	}{
		{"unknown field", LabelCohort, Where{"name": "x"}, `unknown filter "name"`},
		{"operator not valid for kind", LabelTempo, Where{"billed_CONTAINS": "t"}, `unknown filter "billed_CONTAINS"`},
		{"in needs a list", LabelCohort, Where{"cohortId_IN": "x"}, "expects a list"},
		{"null on contains", LabelCohort, Where{"cohortId_CONTAINS": nil}, "does not accept null"},
		{"relationship needs an object", LabelCohort, Where{"hasCohortSampleSamples_SOME": "x"}, "expects an object"},
		{"connection edge filter", LabelSample, Where{"cohortsHasCohortSampleConnection_SOME": map[string]any{"edge": map[string]any{}}}, "not filterable"},
		{"unknown label", "Patient", Where{"x": 1}, `unknown label "Patient"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler(SmileModel()).Where(tt.label, "n", tt.where)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestOperatorSuffixes(t *testing.T) {
	assert.Equal(t, []string{"", "_NOT", "_INCLUDES", "_NOT_INCLUDES"}, OperatorSuffixes(KindStringList))
	assert.Equal(t, []string{"", "_NOT"}, OperatorSuffixes(KindBool))
}
