package mail

import "context"

// NoopMailer is used when no SMTP relay is configured.
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}
