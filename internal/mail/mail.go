// Package mail sends transactional email (signup welcome, password reset).
// Delivery is best effort; the shop never blocks a request on SMTP.
package mail

import "context"

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
