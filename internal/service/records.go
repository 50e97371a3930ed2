package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/schema"
	"github.com/mandawilson/smile-dashboard/internal/search"
	"github.com/pkg/errors"
)

// Operation names of the list queries, reported as their own metric labels.
const (
	CohortRecordsOperation = "CohortRecords"
	SampleRecordsOperation = "SampleRecords"
)

const cohortRecordsQuery = `query CohortRecords($where: CohortWhere, $options: CohortOptions) {
  cohortsConnection(where: $where) { totalCount }
  cohorts(where: $where, options: $options) {
    cohortId
    hasCohortCompleteCohortCompletes(options: {sort: [{date: DESC}]}) {
      date endUsers pmUsers projectTitle projectSubtitle status type
    }
    hasCohortSampleSamplesConnection { totalCount }
    hasCohortSampleSamples { hasTempoTempos { billed } }
  }
}`

const sampleRecordsQuery = `query SampleRecords($where: SampleWhere, $options: SampleOptions) {
  samplesConnection(where: $where) { totalCount }
  samples(where: $where, options: $options) {
    smileSampleId
    latestMetadata {
      primaryId cmoSampleName cmoPatientId investigatorSampleId importDate
      sampleType oncotreeCode cancerType cancerTypeDetailed tissueLocation sex
    }
    hasTempoTempos { billed billedBy costCenter custodianInformation accessLevel }
  }
}`

// RecordsQuery selects one page of a list view. A zero Limit returns every
// matching record.
type RecordsQuery struct {
	Search string

	// BilledFilter is set when the billed column filter is active; Billed
	// holds its selected values.
	BilledFilter bool
	Billed       []string

	CohortID string
	Limit    int
	Offset   int
}

// RecordList is one page of flattened rows.
type RecordList struct {
	Total   int              `json:"totalCount"`
	Columns []search.Column  `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RecordsService serves the cohorts and samples list views by running
// GraphQL queries against the merged schema on the caller's behalf.
type RecordsService struct {
	gateway *GatewayService
}

func NewRecordsService(gateway *GatewayService) *RecordsService {
	return &RecordsService{gateway: gateway}
}

// Cohorts lists cohorts matching the search and billed filter.
func (s *RecordsService) Cohorts(ctx context.Context, user *schema.User, q RecordsQuery) (*RecordList, error) {
	where := search.Clause(
		search.CohortFilterWhere(search.ParseSearch(q.Search)),
		search.BilledFilterWhere(q.Billed, q.BilledFilter),
	)

	data, err := s.run(ctx, user, CohortRecordsOperation, cohortRecordsQuery, where, q, "cohortId", "DESC")
	if err != nil {
		return nil, err
	}

	list := &RecordList{Total: totalCount(data, "cohortsConnection"), Columns: search.CohortColumns}
	for _, c := range asList(data["cohorts"]) {
		list.Rows = append(list.Rows, cohortRow(asMap(c)))
	}
	return list, nil
}

// Samples lists samples matching the search, optionally within one cohort.
func (s *RecordsService) Samples(ctx context.Context, user *schema.User, q RecordsQuery) (*RecordList, error) {
	var custom search.Where
	if q.CohortID != "" {
		custom = search.CohortSamplesWhere(q.CohortID)
	}
	where := search.Clause(search.SampleFilterWhere(search.ParseSearch(q.Search)), custom)

	data, err := s.run(ctx, user, SampleRecordsOperation, sampleRecordsQuery, where, q, "smileSampleId", "ASC")
	if err != nil {
		return nil, err
	}

	list := &RecordList{Total: totalCount(data, "samplesConnection"), Columns: search.SampleColumns}
	for _, sample := range asList(data["samples"]) {
		list.Rows = append(list.Rows, sampleRow(asMap(sample)))
	}
	return list, nil
}

func (s *RecordsService) run(ctx context.Context, user *schema.User, operation, query string, where search.Where, q RecordsQuery, sortField, direction string) (map[string]any, error) {
	options := map[string]any{
		"sort": []any{map[string]any{sortField: direction}},
	}
	if q.Limit > 0 {
		options["limit"] = q.Limit
	}
	if q.Offset > 0 {
		options["offset"] = q.Offset
	}

	variables := map[string]any{"options": options}
	if len(where) > 0 {
		variables["where"] = map[string]any(where)
	}

	result := s.gateway.Execute(ctx, user, schema.Request{
		Query:         query,
		OperationName: operation,
		Variables:     variables,
	})
	if result.HasErrors() {
		return nil, resultError(result)
	}

	data, ok := result.Data.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s returned no data", operation)
	}
	return data, nil
}

// resultError surfaces the HTTPError a resolver returned, so REST callers
// get the same status the GraphQL extensions carry.
func resultError(result *graphql.Result) error {
	first := result.Errors[0]

	orig := first.OriginalError()
	if located, ok := orig.(*gqlerrors.Error); ok {
		orig = located.OriginalError
	}
	var httpErr *errs.HTTPError
	if orig != nil && errors.As(orig, &httpErr) {
		return httpErr
	}
	if code, _ := first.Extensions["code"].(string); code == errs.CodeUnauthenticated {
		return errs.NewUnauthenticatedError(schema.LoginPath)
	}
	return errs.NewBadRequestError(first.Message, true, nil, nil, nil)
}

func cohortRow(cohort map[string]any) map[string]any {
	row := map[string]any{
		"cohortId":     cohort["cohortId"],
		"totalSamples": totalCount(cohort, "hasCohortSampleSamplesConnection"),
		"billed":       yesNo(cohortBilled(cohort)),
	}

	completes := asList(cohort["hasCohortCompleteCohortCompletes"])
	if len(completes) > 0 {
		latest := asMap(completes[0])
		for _, field := range []string{"endUsers", "pmUsers", "projectTitle", "projectSubtitle", "status", "type"} {
			row[field] = latest[field]
		}
		// Sorted newest first, so the initial delivery is the last entry.
		row["initialCohortDeliveryDate"] = asMap(completes[len(completes)-1])["date"]
	}
	return row
}

// cohortBilled mirrors the billed filter: every tempo of every sample is
// billed.
func cohortBilled(cohort map[string]any) bool {
	for _, sample := range asList(cohort["hasCohortSampleSamples"]) {
		for _, tempo := range asList(asMap(sample)["hasTempoTempos"]) {
			if billed, _ := asMap(tempo)["billed"].(bool); !billed {
				return false
			}
		}
	}
	return true
}

func sampleRow(sample map[string]any) map[string]any {
	row := map[string]any{"smileSampleId": sample["smileSampleId"]}
	for k, v := range asMap(sample["latestMetadata"]) {
		row[k] = v
	}

	billed := false
	if tempos := asList(sample["hasTempoTempos"]); len(tempos) > 0 {
		tempo := asMap(tempos[0])
		billed, _ = tempo["billed"].(bool)
		for _, field := range []string{"billedBy", "costCenter", "custodianInformation", "accessLevel"} {
			row[field] = tempo[field]
		}
	}
	row["billed"] = yesNo(billed)
	return row
}

// WriteTSV writes the list as a tab separated download with a header row.
func WriteTSV(w io.Writer, list *RecordList) error {
	out := csv.NewWriter(w)
	out.Comma = '\t'

	if err := out.Write(search.Headers(list.Columns)); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	record := make([]string, len(list.Columns))
	for _, row := range list.Rows {
		for i, col := range list.Columns {
			record[i] = formatCell(row[col.Field])
		}
		if err := out.Write(record); err != nil {
			return errors.Wrap(err, "failed to write row")
		}
	}

	out.Flush()
	return out.Error()
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, formatCell(item))
		}
		return strings.Join(parts, ", ")
	case bool:
		return yesNo(value)
	default:
		return fmt.Sprint(value)
	}
}

func yesNo(b bool) string {
	if b {
		return search.BilledYes
	}
	return search.BilledNo
}

func totalCount(data map[string]any, field string) int {
	n, _ := asMap(data[field])["totalCount"].(int)
	return n
}

func asList(v any) []any {
	list, _ := v.([]interface{})
	return list
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]interface{})
	return m
}
