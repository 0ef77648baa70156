package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"video_digest/internal/config"
)

// Dialer delivers composed messages. *mail.Client satisfies it.
type Dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender sends digests over SMTP. All recipients are blind copied.
type SMTPSender struct {
	dialer Dialer
	from   string
}

// NewSMTPSender creates a sender from the SMTP settings.
func NewSMTPSender(cfg config.SMTP) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return NewSMTPSenderWithDialer(client, cfg.From), nil
}

// NewSMTPSenderWithDialer creates a sender using a custom dialer.
func NewSMTPSenderWithDialer(d Dialer, from string) *SMTPSender {
	return &SMTPSender{dialer: d, from: from}
}

// Send delivers msg to recipients.
func (s *SMTPSender) Send(ctx context.Context, recipients []string, msg *Message) error {
	m, err := s.compose(recipients, msg)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) compose(recipients []string, msg *Message) (*mail.Msg, error) {
	if len(recipients) == 0 {
		return nil, errors.New("no recipients")
	}
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("set from %q: %w", s.from, err)
	}
	if err := m.Bcc(recipients...); err != nil {
		return nil, fmt.Errorf("set bcc: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Plain)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
