package cypher

// Labels of the SMILE graph.
const (
	LabelCohort         = "Cohort"
	LabelCohortComplete = "CohortComplete"
	LabelSample         = "Sample"
	LabelSampleMetadata = "SampleMetadata"
	LabelTempo          = "Tempo"
)

// Relationship fields of the SMILE graph.
const (
	FieldCohortCompletes = "hasCohortCompleteCohortCompletes"
	FieldCohortSamples   = "hasCohortSampleSamples"
	FieldSampleCohorts   = "cohortsHasCohortSample"
	FieldSampleMetadata  = "hasMetadataSampleMetadata"
	FieldSampleTempos    = "hasTempoTempos"
	FieldTempoSamples    = "samplesHasTempo"
)

// SmileModel describes the subset of the SMILE graph the dashboard reads.
func SmileModel() *Model {
	m, err := NewModel(
		&Node{
			Label:  LabelCohort,
			Fields: map[string]Kind{"cohortId": KindString},
			Relationships: map[string]Relationship{
				FieldCohortCompletes: {Field: FieldCohortCompletes, Type: "HAS_COHORT_COMPLETE", Direction: Out, Target: LabelCohortComplete},
				FieldCohortSamples:   {Field: FieldCohortSamples, Type: "HAS_COHORT_SAMPLE", Direction: Out, Target: LabelSample},
			},
		},
		&Node{
			Label: LabelCohortComplete,
			Fields: map[string]Kind{
				"date":            KindString,
				"endUsers":        KindStringList,
				"pmUsers":         KindStringList,
				"projectTitle":    KindString,
				"projectSubtitle": KindString,
				"status":          KindString,
				"type":            KindString,
			},
		},
		&Node{
			Label: LabelSample,
			Fields: map[string]Kind{
				"smileSampleId":  KindString,
				"datasource":     KindString,
				"sampleCategory": KindString,
				"sampleClass":    KindString,
				"revisable":      KindBool,
			},
			Relationships: map[string]Relationship{
				FieldSampleCohorts:  {Field: FieldSampleCohorts, Type: "HAS_COHORT_SAMPLE", Direction: In, Target: LabelCohort},
				FieldSampleMetadata: {Field: FieldSampleMetadata, Type: "HAS_METADATA", Direction: Out, Target: LabelSampleMetadata},
				FieldSampleTempos:   {Field: FieldSampleTempos, Type: "HAS_TEMPO", Direction: Out, Target: LabelTempo},
			},
		},
		&Node{
			Label: LabelSampleMetadata,
			Fields: map[string]Kind{
				"primaryId":            KindString,
				"cmoSampleName":        KindString,
				"cmoPatientId":         KindString,
				"importDate":           KindString,
				"investigatorSampleId": KindString,
				"sampleType":           KindString,
				"oncotreeCode":         KindString,
				"tissueLocation":       KindString,
				"sex":                  KindString,
			},
		},
		&Node{
			Label: LabelTempo,
			Fields: map[string]Kind{
				"smileTempoId":         KindString,
				"billed":               KindBool,
				"billedBy":             KindString,
				"costCenter":           KindString,
				"custodianInformation": KindString,
				"accessLevel":          KindString,
			},
			Relationships: map[string]Relationship{
				FieldTempoSamples: {Field: FieldTempoSamples, Type: "HAS_TEMPO", Direction: In, Target: LabelSample},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return m
}
