package intake

import (
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

// SMTPNotifier delivers operator notifications over SMTP. Transport mode
// follows the mail config: implicit TLS, STARTTLS, or plain.
type SMTPNotifier struct {
	cfg    MailCfg
	logger *slog.Logger

	// send is swapped out in tests
	send func(e *email.Email) error
}

func NewSMTPNotifier(cfg MailCfg, logger *slog.Logger) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg, logger: logger}
	n.send = n.sendSMTP
	return n
}

func (n *SMTPNotifier) Send(subject, replyTo, body string) (bool, string) {
	c := n.cfg
	if c.Server == "" || c.Username == "" || c.Password == "" || c.Destination == "" {
		return false, "Email configuration missing. Please set environment variables."
	}

	e := email.NewEmail()
	e.From = c.Username
	e.To = []string{c.Destination}
	if replyTo != "" {
		e.ReplyTo = []string{replyTo}
	}
	e.Subject = subject
	e.Text = []byte(body)

	if err := n.send(e); err != nil {
		n.logger.Error("failed to send email", "err", err)
		return false, "Unable to send email at this time."
	}
	return true, "Request sent successfully."
}

func (n *SMTPNotifier) sendSMTP(e *email.Email) error {
	c := n.cfg
	addr := net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
	auth := smtp.PlainAuth("", c.Username, c.Password, c.Server)

	switch {
	case c.UseSSL:
		return e.SendWithTLS(addr, auth, nil)
	case c.UseTLS:
		return e.SendWithStartTLS(addr, auth, nil)
	default:
		return e.Send(addr, auth)
	}
}
