package service

import (
	"context"

	"github.com/mandawilson/smile-dashboard/internal/lib/job"
	"github.com/mandawilson/smile-dashboard/internal/schema"
)

// BillingQueue enqueues billing notifications.
type BillingQueue interface {
	EnqueueBillingChange(ctx context.Context, p job.BillingChangePayload) error
}

// BillingNotifier forwards applied billing mutations to the job queue.
type BillingNotifier struct {
	queue BillingQueue
}

func NewBillingNotifier(queue BillingQueue) *BillingNotifier {
	return &BillingNotifier{queue: queue}
}

func (n *BillingNotifier) NotifyBillingChange(ctx context.Context, change schema.BillingChange) error {
	return n.queue.EnqueueBillingChange(ctx, job.BillingChangePayload{
		SampleID:   change.SampleID,
		Billed:     change.Billed,
		CostCenter: change.CostCenter,
		BilledBy:   change.BilledBy,
		UpdatedBy:  change.UpdatedBy,
		TempoIDs:   change.TempoIDs,
	})
}
