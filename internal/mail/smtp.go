package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// sendMail is a seam for testing net/smtp.SendMail.
var sendMail = smtp.SendMail

// SMTPMailer delivers through a plain SMTP relay (MailHog in development).
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	if err := sendMail(m.addr, nil, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
