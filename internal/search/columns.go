package search

// Column is one grid/download column of a list view.
type Column struct {
	Field  string `json:"field"`
	Header string `json:"headerName"`
}

// CohortColumns are the columns of the cohorts list.
var CohortColumns = []Column{
	{Field: "cohortId", Header: "Cohort ID"},
	{Field: "totalSamples", Header: "# Samples"},
	{Field: "billed", Header: "Billed"},
	{Field: "initialCohortDeliveryDate", Header: "Initial Cohort Delivery Date"},
	{Field: "endUsers", Header: "End Users"},
	{Field: "pmUsers", Header: "PM Users"},
	{Field: "projectTitle", Header: "Project Title"},
	{Field: "projectSubtitle", Header: "Project Subtitle"},
	{Field: "status", Header: "Status"},
	{Field: "type", Header: "Type"},
}

// SampleColumns are the columns of the samples list, including the cohort
// detail view.
var SampleColumns = []Column{
	{Field: "primaryId", Header: "Primary ID"},
	{Field: "cmoSampleName", Header: "CMO Sample Name"},
	{Field: "cmoPatientId", Header: "CMO Patient ID"},
	{Field: "investigatorSampleId", Header: "Investigator Sample ID"},
	{Field: "importDate", Header: "Last Updated"},
	{Field: "sampleType", Header: "Sample Type"},
	{Field: "oncotreeCode", Header: "Oncotree Code"},
	{Field: "cancerType", Header: "Cancer Type"},
	{Field: "cancerTypeDetailed", Header: "Cancer Type Detailed"},
	{Field: "tissueLocation", Header: "Tissue Location"},
	{Field: "sex", Header: "Sex"},
	{Field: "billed", Header: "Billed"},
	{Field: "billedBy", Header: "Billed By"},
	{Field: "costCenter", Header: "Cost Center/Fund Number"},
	{Field: "custodianInformation", Header: "Custodian Information"},
	{Field: "accessLevel", Header: "Access Level"},
}

// Headers returns the column headers in order.
func Headers(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}
