// Package notify sends transactional mail through the external mail API.
// The registrant and operator messages are independent outcomes; the fan-out
// reports both rather than collapsing them into one error.
package notify

import "context"

// Attachment is an inline file carried with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Notifier is the mail capability.
//
// Sentinel errors: sentinel.ErrUnavailable / sentinel.ErrTimeout for
// transport failures.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
