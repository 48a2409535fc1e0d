package utils

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers transactional email over SMTP.
type SMTPMailer struct {
	From   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{
		From:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// Send builds a multipart/alternative message and dials the SMTP server.
// gomail has no context support, so the dial runs in its own goroutine and
// Send returns as soon as ctx is done; the abandoned dial finishes on its own.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	msg := NewEmailMessage(m.From, to, subject, textBody, htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			Logger.Errorf("failed to send email to %s", to)
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email to %s: %w", to, ctx.Err())
	}
}

func NewEmailMessage(from, to, subject, textBody, htmlBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	switch {
	case textBody != "" && htmlBody != "":
		msg.SetBody("text/plain", textBody)
		msg.AddAlternative("text/html", htmlBody)
	case htmlBody != "":
		msg.SetBody("text/html", htmlBody)
	default:
		msg.SetBody("text/plain", textBody)
	}
	return msg
}
