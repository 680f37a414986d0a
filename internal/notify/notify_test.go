package notify

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotice() Notice {
	return Notice{
		SchoolCode:   "SCH001",
		SchoolName:   "Greenfield Academy",
		ContactEmail: "admin@greenfield.example",
		Plan:         "Sessional",
		AmountPaid:   50000,
		NewExpiry:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Origin:       "webhook",
		Reference:    "tx-123",
	}
}

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestEmail(cfg SMTPConfig, sendErr error) (*Email, *[]capturedMail) {
	var sent []capturedMail
	e := NewEmail(cfg)
	e.sendMail = func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
		return sendErr
	}
	return e, &sent
}

var validSMTP = SMTPConfig{
	Host:     "smtp.example.com",
	Port:     "587",
	Username: "user@example.com",
	Password: "password",
	From:     "licenses@example.com",
}

func TestEmailNotify(t *testing.T) {
	e, sent := newTestEmail(validSMTP, nil)

	require.NoError(t, e.Notify(context.Background(), testNotice()))
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, "licenses@example.com", mail.from)
	assert.Equal(t, []string{"admin@greenfield.example"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Your school license has been renewed")
	assert.Contains(t, mail.msg, "Greenfield Academy")
	assert.Contains(t, mail.msg, "1 January 2026")
}

func TestEmailNotifySkipsWithoutContact(t *testing.T) {
	e, sent := newTestEmail(validSMTP, nil)
	n := testNotice()
	n.ContactEmail = ""

	require.NoError(t, e.Notify(context.Background(), n))
	assert.Empty(t, *sent)
}

func TestEmailSend(t *testing.T) {
	tests := []struct {
		name     string
		cfg      SMTPConfig
		sendErr  error
		errorMsg string
	}{
		{name: "missing host", cfg: SMTPConfig{Port: "587", Username: "u", Password: "p"}, errorMsg: "SMTP configuration missing"},
		{name: "missing port", cfg: SMTPConfig{Host: "h", Username: "u", Password: "p"}, errorMsg: "SMTP configuration missing"},
		{name: "missing username", cfg: SMTPConfig{Host: "h", Port: "587", Password: "p"}, errorMsg: "SMTP configuration missing"},
		{name: "missing password", cfg: SMTPConfig{Host: "h", Port: "587", Username: "u"}, errorMsg: "SMTP configuration missing"},
		{name: "transport failure", cfg: validSMTP, sendErr: errors.New("connection refused"), errorMsg: "connection refused"},
		{name: "success", cfg: validSMTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEmail(tt.cfg, tt.sendErr)
			err := e.Send(context.Background(), "test@example.com", "Test Subject", "Test Body")
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestEmailFromDefaultsToUsername(t *testing.T) {
	cfg := validSMTP
	cfg.From = ""
	e, sent := newTestEmail(cfg, nil)

	require.NoError(t, e.Send(context.Background(), "test@example.com", "s", "b"))
	require.Len(t, *sent, 1)
	assert.Equal(t, "user@example.com", (*sent)[0].from)
}

func TestEmailNotifyHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	e := NewEmail(validSMTP)
	e.sendMail = func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.Notify(ctx, testNotice())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendMailContextStalledServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accept but never send the SMTP greeting.
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = sendMailContext(ctx, ln.Addr().String(), nil, "a@example.com", []string{"b@example.com"}, []byte("hi"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotify(t *testing.T) {
	sender := &fakeSender{}
	tg := &Telegram{api: sender, adminChatID: 42}

	require.NoError(t, tg.Notify(context.Background(), testNotice()))
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.True(t, strings.Contains(msg.Text, "SCH001"))
	assert.Contains(t, msg.Text, "2026-01-01")
	assert.Contains(t, msg.Text, "Ref: tx-123")
}

type blockingSender struct {
	release chan struct{}
}

func (b *blockingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-b.release
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifyHonoursDeadline(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	defer close(sender.release)
	tg := &Telegram{api: sender, adminChatID: 42}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tg.Notify(ctx, testNotice())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTelegramNotifyError(t *testing.T) {
	tg := &Telegram{api: &fakeSender{err: errors.New("chat not found")}, adminChatID: 42}

	err := tg.Notify(context.Background(), testNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

type notifierFunc func(ctx context.Context, n Notice) error

func (f notifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

func TestMulti(t *testing.T) {
	var calls int
	ok := notifierFunc(func(context.Context, Notice) error { calls++; return nil })
	failing := notifierFunc(func(context.Context, Notice) error { calls++; return errors.New("smtp down") })

	err := Multi{failing, ok, failing}.Notify(context.Background(), testNotice())
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "2 errors occurred")

	assert.NoError(t, Multi{ok}.Notify(context.Background(), testNotice()))
	assert.NoError(t, Multi{}.Notify(context.Background(), testNotice()))
	assert.NoError(t, Nop{}.Notify(context.Background(), testNotice()))
}
