package email

import (
	"context"

	"github.com/babili/authd/pkg/slogx"
)

// LogSender writes mail to the log instead of delivering it. It is the
// default sender in development, where no SMTP relay is configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	slogx.FromContext(ctx).Info("email delivery skipped (log sender)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
