package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"schoollicense.app/renewal/internal/logger"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends the renewal receipt to the school's contact address.
type Email struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func NewEmail(cfg SMTPConfig) *Email {
	return &Email{cfg: cfg, sendMail: sendMailContext}
}

func (e *Email) Notify(ctx context.Context, n Notice) error {
	if n.ContactEmail == "" {
		logger.Debug("No contact email on license, skipping receipt", map[string]interface{}{
			"school_code": n.SchoolCode,
		})
		return nil
	}
	subject := "Your school license has been renewed"
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour %s license is now active until %s.\r\n\r\nReference: %s\r\n",
		n.displayName(), n.Plan, n.NewExpiry.Format("2 January 2006"), n.Reference)
	return e.Send(ctx, n.ContactEmail, subject, body)
}

// Send returns when the message is delivered or ctx is done, whichever
// comes first.
func (e *Email) Send(ctx context.Context, to, subject, body string) error {
	if e.cfg.Host == "" || e.cfg.Port == "" || e.cfg.Username == "" || e.cfg.Password == "" {
		logger.Error("SMTP configuration missing")
		return fmt.Errorf("SMTP configuration missing")
	}

	from := e.cfg.From
	if from == "" {
		from = e.cfg.Username
	}

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", from, to, subject, body))

	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)
	err := withContext(ctx, func() error {
		return e.sendMail(ctx, addr, auth, from, []string{to}, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// sendMailContext is smtp.SendMail with a dial and session bounded by ctx.
func sendMailContext(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
