// Package mail delivers plain-text notifications over SMTP.
package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

type Config struct {
	Addr     string
	From     string
	Username string
	Password string
}

type Sender struct {
	cfg  Config
	auth smtp.Auth
	now  func() time.Time
}

func NewSender(cfg Config) *Sender {
	s := &Sender{cfg: cfg, now: time.Now}
	if cfg.Username != "" {
		host, _, _ := net.SplitHostPort(cfg.Addr)
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

// Send delivers one message. The whole SMTP exchange is bounded by ctx.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	host, _, _ := net.SplitHostPort(s.cfg.Addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return errors.Wrap(err, "smtp handshake")
	}
	defer c.Close()

	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return errors.Wrap(err, "smtp auth")
			}
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return errors.Wrap(err, "smtp mail from")
	}
	if err := c.Rcpt(to); err != nil {
		return errors.Wrap(err, "smtp rcpt to")
	}

	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	if _, err := w.Write(s.message(to, subject, body)); err != nil {
		return errors.Wrap(err, "write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "finish message")
	}
	return c.Quit()
}

func (s *Sender) message(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
