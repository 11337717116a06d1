package email

import "context"

// Sender delivers transactional mail to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
