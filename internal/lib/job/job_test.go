package job

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/mandawilson/smile-dashboard/internal/lib/email"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to      []string
	changes []email.BillingChange
	err     error
}

func (m *recordingMailer) SendBillingChangeEmail(_ context.Context, to []string, change email.BillingChange) error {
	m.to = to
	m.changes = append(m.changes, change)
	return m.err
}

type countingWarmer struct {
	calls int
	err   error
}

func (w *countingWarmer) Warm(context.Context) (int, error) {
	w.calls++
	return 42, w.err
}

func newTestService() *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger}
}

func TestBillingChangeTask(t *testing.T) {
	mailer := &recordingMailer{}
	j := newTestService()
	j.mailer = mailer
	j.recipients = []string{"billing@mskcc.org"}
	j.dashboardURL = "https://smile.local"

	task, err := NewBillingChangeTask(BillingChangePayload{
		SampleID:  "S-1",
		Billed:    true,
		BilledBy:  "jdoe",
		UpdatedBy: "jdoe@mskcc.org",
		TempoIDs:  []string{"t1", "t2"},
	})
	require.NoError(t, err)
	assert.Equal(t, TaskBillingChange, task.Type())

	require.NoError(t, j.handleBillingChangeTask(context.Background(), task))
	require.Len(t, mailer.changes, 1)
	assert.Equal(t, []string{"billing@mskcc.org"}, mailer.to)
	assert.Equal(t, "S-1", mailer.changes[0].SampleID)
	assert.Equal(t, 2, mailer.changes[0].TempoCount)
	assert.Equal(t, "https://smile.local", mailer.changes[0].DashboardURL)

	mailer.err = errors.New("smtp down")
	assert.Error(t, j.handleBillingChangeTask(context.Background(), task))
}

func TestBillingChangeTaskDisabled(t *testing.T) {
	j := newTestService()
	task, err := NewBillingChangeTask(BillingChangePayload{SampleID: "S-1"})
	require.NoError(t, err)

	assert.NoError(t, j.handleBillingChangeTask(context.Background(), task))
}

func TestBillingChangeTaskBadPayload(t *testing.T) {
	j := newTestService()
	err := j.handleBillingChangeTask(context.Background(), asynq.NewTask(TaskBillingChange, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestOncotreeRefreshTask(t *testing.T) {
	warmer := &countingWarmer{}
	j := newTestService()
	j.oncotree = warmer

	require.NoError(t, j.handleOncotreeRefreshTask(context.Background(), NewOncotreeRefreshTask()))
	assert.Equal(t, 1, warmer.calls)

	warmer.err = errors.New("oncotree unavailable")
	assert.Error(t, j.handleOncotreeRefreshTask(context.Background(), NewOncotreeRefreshTask()))

	assert.NoError(t, newTestService().handleOncotreeRefreshTask(context.Background(), NewOncotreeRefreshTask()))
}
