package notification

import (
	"fmt"
	"io"

	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"
)

// Message is an outbound email, optionally carrying a PDF attachment.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer delivers emails. Sends are best-effort: callers log failures
// and move on, a lost email never fails the originating request.
type Mailer interface {
	Send(msg Message) error
}

type smtpMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPMailer sends through a plain SMTP relay.
func NewSMTPMailer(host string, port int, user, pass, from string) Mailer {
	return &smtpMailer{host: host, port: port, user: user, pass: pass, from: from}
}

func (m *smtpMailer) Send(msg Message) error {
	em := gomail.NewMessage()
	em.SetHeader("From", m.from)
	em.SetHeader("To", msg.To)
	em.SetHeader("Subject", msg.Subject)
	em.SetBody("text/plain", msg.Body)

	if len(msg.Attachment) > 0 {
		em.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(msg.Attachment)
			return err
		}))
	}

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(em); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

type logMailer struct {
	logger zerolog.Logger
}

// NewLogMailer logs instead of sending. Dev only.
func NewLogMailer(logger zerolog.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(msg Message) error {
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachment_bytes", len(msg.Attachment)).
		Msg("email (dev mailer)")
	return nil
}
