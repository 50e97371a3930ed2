package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/mandawilson/smile-dashboard/internal/cypher"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/mandawilson/smile-dashboard/internal/lib/job"
	"github.com/mandawilson/smile-dashboard/internal/schema"
	"github.com/mandawilson/smile-dashboard/internal/search"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	added   []redis.Z
	removed []string
	count   int64
	err     error
}

func (f *fakeSessionStore) ZAdd(_ context.Context, _ string, members ...redis.Z) *redis.IntCmd {
	f.added = append(f.added, members...)
	return redis.NewIntResult(int64(len(members)), f.err)
}

func (f *fakeSessionStore) ZRemRangeByScore(_ context.Context, _, min, max string) *redis.IntCmd {
	f.removed = append(f.removed, min+" "+max)
	return redis.NewIntResult(0, nil)
}

func (f *fakeSessionStore) ZCount(_ context.Context, _, _, _ string) *redis.IntCmd {
	return redis.NewIntResult(f.count, nil)
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSessionTouch(t *testing.T) {
	store := &fakeSessionStore{count: 3}
	sessions := NewSessionService(store, 30*time.Minute, nopLogger())
	now := time.UnixMilli(1_700_000_000_000)
	sessions.now = func() time.Time { return now }

	sessions.Touch(context.Background(), "user_1")

	require.Len(t, store.added, 1)
	assert.Equal(t, "user_1", store.added[0].Member)
	assert.Equal(t, float64(now.UnixMilli()), store.added[0].Score)
	assert.Equal(t, []string{"-inf (1699998200000"}, store.removed)
}

func TestSessionTouchDegrades(t *testing.T) {
	store := &fakeSessionStore{err: errors.New("connection refused")}
	sessions := NewSessionService(store, time.Minute, nopLogger())
	sessions.Touch(context.Background(), "user_1")
	assert.Empty(t, store.removed, "stops after a failed write")

	var nilService *SessionService
	assert.NotPanics(t, func() { nilService.Touch(context.Background(), "user_1") })
	assert.NotPanics(t, func() { NewSessionService(nil, time.Minute, nopLogger()).Touch(context.Background(), "u") })
}

// fakeExecutor records the request context and variables it sees.
type fakeExecutor struct {
	rc     *schema.RequestContext
	req    schema.Request
	result *graphql.Result
}

func (f *fakeExecutor) Execute(ctx context.Context, req schema.Request) *graphql.Result {
	f.rc, _ = schema.FromContext(ctx)
	f.req = req
	if f.result != nil {
		return f.result
	}
	return &graphql.Result{Data: map[string]interface{}{}}
}

func newGatewayService(exec Executor, store SessionStore) *GatewayService {
	return NewGatewayService(exec, nil, cypher.SmileModel(), nil, NewSessionService(store, time.Minute, nopLogger()))
}

func TestGatewayServiceBuildsRequestContext(t *testing.T) {
	exec := &fakeExecutor{}
	store := &fakeSessionStore{}
	gw := newGatewayService(exec, store)

	user := &schema.User{ID: "user_1", Email: "jdoe@mskcc.org"}
	gw.Execute(context.Background(), user, schema.Request{Query: "{ cohorts { cohortId } }"})

	require.NotNil(t, exec.rc)
	assert.True(t, exec.rc.IsAuthenticated)
	assert.Equal(t, user, exec.rc.User)
	assert.NotNil(t, exec.rc.Loaders)
	assert.Len(t, store.added, 1)

	first := exec.rc.Loaders
	gw.Execute(context.Background(), nil, schema.Request{Query: "{ cohorts { cohortId } }"})
	assert.False(t, exec.rc.IsAuthenticated)
	assert.NotSame(t, first, exec.rc.Loaders, "loaders are per request")
	assert.Len(t, store.added, 1, "anonymous requests are not tracked")
}

type recordingQueue struct {
	payloads []job.BillingChangePayload
}

func (q *recordingQueue) EnqueueBillingChange(_ context.Context, p job.BillingChangePayload) error {
	q.payloads = append(q.payloads, p)
	return nil
}

func TestBillingNotifier(t *testing.T) {
	queue := &recordingQueue{}
	var notifier schema.BillingNotifier = NewBillingNotifier(queue)

	err := notifier.NotifyBillingChange(context.Background(), schema.BillingChange{
		SampleID: "S-1", Billed: true, BilledBy: "jdoe", UpdatedBy: "jdoe@mskcc.org", TempoIDs: []string{"t1"},
	})
	require.NoError(t, err)
	require.Len(t, queue.payloads, 1)
	assert.Equal(t, "S-1", queue.payloads[0].SampleID)
	assert.Equal(t, []string{"t1"}, queue.payloads[0].TempoIDs)
}

func TestRecordsCohorts(t *testing.T) {
	exec := &fakeExecutor{result: &graphql.Result{Data: map[string]interface{}{
		"cohortsConnection": map[string]interface{}{"totalCount": 1},
		"cohorts": []interface{}{
			map[string]interface{}{
				"cohortId": "CCS_1",
				"hasCohortCompleteCohortCompletes": []interface{}{
					map[string]interface{}{"date": "2024-03-01", "status": "Delivered", "endUsers": []interface{}{"a", "b"}},
					map[string]interface{}{"date": "2024-01-01", "status": "Pending"},
				},
				"hasCohortSampleSamplesConnection": map[string]interface{}{"totalCount": 2},
				"hasCohortSampleSamples": []interface{}{
					map[string]interface{}{"hasTempoTempos": []interface{}{map[string]interface{}{"billed": true}}},
					map[string]interface{}{"hasTempoTempos": []interface{}{map[string]interface{}{"billed": false}}},
				},
			},
		},
	}}}
	records := NewRecordsService(newGatewayService(exec, nil))

	list, err := records.Cohorts(context.Background(), &schema.User{ID: "u"}, RecordsQuery{
		Search: "CCS_1", BilledFilter: true, Billed: []string{search.BilledNo}, Limit: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "CohortRecords", exec.req.OperationName)
	where := exec.req.Variables["where"].(map[string]any)
	assert.Contains(t, where, "AND", "search OR and billed OR nest under AND")
	options := exec.req.Variables["options"].(map[string]any)
	assert.Equal(t, 20, options["limit"])
	assert.NotContains(t, options, "offset")

	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Rows, 1)
	row := list.Rows[0]
	assert.Equal(t, "CCS_1", row["cohortId"])
	assert.Equal(t, 2, row["totalSamples"])
	assert.Equal(t, "No", row["billed"])
	assert.Equal(t, "Delivered", row["status"])
	assert.Equal(t, "2024-01-01", row["initialCohortDeliveryDate"])
}

func TestRecordsSamplesInCohort(t *testing.T) {
	exec := &fakeExecutor{result: &graphql.Result{Data: map[string]interface{}{
		"samplesConnection": map[string]interface{}{"totalCount": 1},
		"samples": []interface{}{
			map[string]interface{}{
				"smileSampleId":  "S-1",
				"latestMetadata": map[string]interface{}{"primaryId": "P-1", "cancerType": "Lung"},
				"hasTempoTempos": []interface{}{map[string]interface{}{"billed": true, "costCenter": "FND-1"}},
			},
		},
	}}}
	records := NewRecordsService(newGatewayService(exec, nil))

	list, err := records.Samples(context.Background(), &schema.User{ID: "u"}, RecordsQuery{CohortID: "CCS_1"})
	require.NoError(t, err)

	where := exec.req.Variables["where"].(map[string]any)
	assert.Contains(t, where, cypher.FieldSampleCohorts+"Connection_SOME")
	assert.NotContains(t, exec.req.Variables["options"].(map[string]any), "limit")

	require.Len(t, list.Rows, 1)
	assert.Equal(t, "P-1", list.Rows[0]["primaryId"])
	assert.Equal(t, "Yes", list.Rows[0]["billed"])
	assert.Equal(t, "FND-1", list.Rows[0]["costCenter"])
}

func TestRecordsErrors(t *testing.T) {
	exec := &fakeExecutor{result: &graphql.Result{Errors: []gqlerrors.FormattedError{
		gqlerrors.FormatError(errs.NewUnauthenticatedError(schema.LoginPath)),
	}}}
	records := NewRecordsService(newGatewayService(exec, nil))

	_, err := records.Samples(context.Background(), nil, RecordsQuery{})
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, errs.CodeUnauthenticated, httpErr.Code)

	located := gqlerrors.NewError("unavailable", nil, "", nil, nil,
		errs.NewServiceUnavailableError("The graph database could not answer this request"))
	exec.result = &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(located)}}

	_, err = records.Cohorts(context.Background(), &schema.User{ID: "u"}, RecordsQuery{})
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
}

func TestWriteTSV(t *testing.T) {
	list := &RecordList{
		Columns: []search.Column{{Field: "cohortId", Header: "Cohort ID"}, {Field: "endUsers", Header: "End Users"}, {Field: "billed", Header: "Billed"}},
		Rows: []map[string]any{
			{"cohortId": "CCS_1", "endUsers": []any{"a", "b"}, "billed": "Yes"},
			{"cohortId": "CCS_2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, list))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Cohort ID\tEnd Users\tBilled",
		"CCS_1\ta, b\tYes",
		"CCS_2\t\t",
	}, lines)
}
