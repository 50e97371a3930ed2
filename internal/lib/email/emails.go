package email

import (
	"context"
	"fmt"
)

// BillingChange is the data rendered into the billing notification.
type BillingChange struct {
	SampleID     string
	Billed       bool
	CostCenter   string
	BilledBy     string
	UpdatedBy    string
	TempoCount   int
	DashboardURL string
}

// SendBillingChangeEmail tells the billing recipients about an updated
// Tempo record.
func (c *Client) SendBillingChangeEmail(ctx context.Context, to []string, change BillingChange) error {
	subject := fmt.Sprintf("[SMILE] Sample %s marked as not billed", change.SampleID)
	if change.Billed {
		subject = fmt.Sprintf("[SMILE] Sample %s marked as billed", change.SampleID)
	}
	return c.SendEmail(ctx, to, subject, TemplateBillingChange, change)
}
