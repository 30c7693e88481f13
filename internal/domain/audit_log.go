package domain

import "time"

// ClassifierAuditLog records one call to the external content-risk
// classifier: the prompt, the verbatim response, and cost accounting. The
// classification itself happens outside this core.
type ClassifierAuditLog struct {
	ID               string
	UserID           *string
	CommandName      string
	InputPrompt      string
	RawResponse      *string
	TokensUsed       *int
	ProcessingTimeMS *int64
	CreatedAt        time.Time
}
