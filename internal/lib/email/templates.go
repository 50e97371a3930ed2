package email

import "embed"

// Template names an embedded HTML template under templates/.
type Template string

const (
	// TemplateBillingChange corresponds to templates/billing_change.html
	TemplateBillingChange Template = "billing_change"
)

//go:embed templates/*.html
var templateFS embed.FS
