package search

import "github.com/mandawilson/smile-dashboard/internal/cypher"

var (
	sampleMetadataFields = []string{
		"primaryId",
		"cmoSampleName",
		"cmoPatientId",
		"investigatorSampleId",
		"importDate",
		"sampleType",
		"oncotreeCode",
	}
	tempoFields = []string{"billedBy", "costCenter"}
)

// SampleFilterWhere returns one predicate per searchable sample field, or
// nil when there are no tokens.
func SampleFilterWhere(tokens []string) []Where {
	if len(tokens) == 0 {
		return nil
	}

	out := make([]Where, 0, len(sampleMetadataFields)+len(tempoFields))
	for _, field := range sampleMetadataFields {
		out = append(out, Where{cypher.FieldSampleMetadata + "_SOME": stringPredicate(field, tokens)})
	}
	for _, field := range tempoFields {
		out = append(out, Where{cypher.FieldSampleTempos + "_SOME": stringPredicate(field, tokens)})
	}
	return out
}

// CohortSamplesWhere restricts samples to one cohort.
func CohortSamplesWhere(cohortID string) Where {
	if cohortID == "" {
		return nil
	}
	return Where{
		cypher.FieldSampleCohorts + "Connection_SOME": Where{
			"node": Where{"cohortId": cohortID},
		},
	}
}
