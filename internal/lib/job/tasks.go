package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskBillingChange notifies billing recipients about a Tempo update.
	TaskBillingChange = "email:billing_change"

	// TaskOncotreeRefresh re-warms the Oncotree cache.
	TaskOncotreeRefresh = "oncotree:refresh"
)

// BillingChangePayload is the JSON payload of TaskBillingChange.
type BillingChangePayload struct {
	SampleID   string   `json:"sample_id"`
	Billed     bool     `json:"billed"`
	CostCenter string   `json:"cost_center,omitempty"`
	BilledBy   string   `json:"billed_by"`
	UpdatedBy  string   `json:"updated_by"`
	TempoIDs   []string `json:"tempo_ids"`
}

// NewBillingChangeTask builds the notification task for one mutation.
func NewBillingChangeTask(p BillingChangePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskBillingChange,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewOncotreeRefreshTask builds the periodic cache refresh task. Unique
// keeps overlapping schedules from stacking refreshes.
func NewOncotreeRefreshTask() *asynq.Task {
	return asynq.NewTask(
		TaskOncotreeRefresh,
		nil,
		asynq.MaxRetry(5),
		asynq.Queue("low"),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(time.Hour),
	)
}

// EnqueueBillingChange queues a billing notification.
func (j *JobService) EnqueueBillingChange(ctx context.Context, p BillingChangePayload) error {
	task, err := NewBillingChangeTask(p)
	if err != nil {
		return fmt.Errorf("failed to build billing task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue billing task: %w", err)
	}

	j.logger.Debug().Str("task_id", info.ID).Str("sample_id", p.SampleID).Msg("billing notification queued")
	return nil
}
