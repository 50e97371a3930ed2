package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/mandawilson/smile-dashboard/internal/lib/email"
)

func (j *JobService) handleBillingChangeTask(ctx context.Context, t *asynq.Task) error {
	var p BillingChangePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal billing payload: %v: %w", err, asynq.SkipRetry)
	}

	if j.mailer == nil || len(j.recipients) == 0 {
		j.logger.Debug().Str("sample_id", p.SampleID).Msg("billing emails disabled, dropping notification")
		return nil
	}

	j.logger.Info().
		Str("type", "billing_change").
		Str("sample_id", p.SampleID).
		Msg("Processing billing notification task")

	err := j.mailer.SendBillingChangeEmail(ctx, j.recipients, email.BillingChange{
		SampleID:     p.SampleID,
		Billed:       p.Billed,
		CostCenter:   p.CostCenter,
		BilledBy:     p.BilledBy,
		UpdatedBy:    p.UpdatedBy,
		TempoCount:   len(p.TempoIDs),
		DashboardURL: j.dashboardURL,
	})
	if err != nil {
		j.logger.Error().
			Str("type", "billing_change").
			Str("sample_id", p.SampleID).
			Err(err).
			Msg("Failed to send billing notification")
		return err
	}

	return nil
}

func (j *JobService) handleOncotreeRefreshTask(ctx context.Context, _ *asynq.Task) error {
	if j.oncotree == nil {
		return nil
	}

	n, err := j.oncotree.Warm(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("oncotree refresh failed, keeping cached terms")
		return err
	}

	j.logger.Info().Int("terms", n).Msg("oncotree cache refreshed")
	return nil
}
