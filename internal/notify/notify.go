// Package notify delivers alert emails over SMTP.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/bc-dunia/hostguard/internal/config"
	"github.com/bc-dunia/hostguard/internal/events"
)

// Notifier sends a single notification.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Error reports a notification that could not be delivered.
type Error struct {
	Subject string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to send %q: %v", e.Subject, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// SMTPNotifier sends plain-text email through an SMTP relay that supports
// STARTTLS. Each Send makes exactly one attempt.
type SMTPNotifier struct {
	cfg config.SMTP
	log *events.Logger

	// tlsConfig replaces the library's STARTTLS settings when set.
	tlsConfig *tls.Config
}

// NewSMTPNotifier creates a notifier for the given relay settings.
func NewSMTPNotifier(cfg config.SMTP, log *events.Logger) *SMTPNotifier {
	if log == nil {
		log = events.NopLogger()
	}
	return &SMTPNotifier{cfg: cfg, log: log}
}

// Send delivers one message. Failures are logged and returned as *Error;
// there is no retry.
func (n *SMTPNotifier) Send(ctx context.Context, subject, body string) error {
	if err := n.send(ctx, subject, body); err != nil {
		nerr := &Error{Subject: subject, Cause: err}
		n.log.LogEmailFailed(subject, err)
		return nerr
	}
	n.log.LogEmailSent(subject)
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, subject, body string) error {
	msg, err := buildMessage(n.cfg, subject, body)
	if err != nil {
		return err
	}

	// The library's default connection timeout is the only bound on a
	// stalled relay; none is configured here.
	// The mechanism is negotiated from the relay's AUTH list; after STARTTLS
	// that covers SCRAM, CRAM-MD5, PLAIN and LOGIN.
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		mail.WithUsername(n.cfg.Sender),
		mail.WithPassword(n.cfg.Password),
	}
	if n.tlsConfig != nil {
		opts = append(opts, mail.WithTLSConfig(n.tlsConfig))
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery to %s:%d: %w", n.cfg.Host, n.cfg.Port, err)
	}
	return nil
}

func buildMessage(cfg config.SMTP, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(cfg.Receiver); err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Nop accepts every notification without sending it. It backs dry runs.
type Nop struct {
	Log *events.Logger
}

// Send logs the suppressed notification.
func (n Nop) Send(_ context.Context, subject, _ string) error {
	if n.Log != nil {
		n.Log.LogDryRun(fmt.Sprintf("email %q", subject))
	}
	return nil
}
