package notify

import "context"

// Outcome identifies which message a notification carries.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Notification describes one outbound outcome message. The token is embedded
// in the success link and acts as the retrieval capability; failure messages
// never carry internal error detail.
type Notification struct {
	JobID     string
	Recipient string
	Token     string
	Locale    string
	Outcome   Outcome
}

// Notifier delivers outcome messages to requesters. Delivery is best effort:
// a send failure must never influence job state.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
