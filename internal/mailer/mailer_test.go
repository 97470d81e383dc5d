package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerComposes(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com", Username: "u", Password: "p"})
	require.NoError(t, err)

	sm := m.(*smtpMailer)
	sm.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotMsg string
	sm.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "jobs@example.com", from)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Body: "line1\nline2"}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nline1\r\nline2"))
}

func TestSMTPMailerRejectsHeaderInjection(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com"})
	require.NoError(t, err)
	m.(*smtpMailer).send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not send")
		return nil
	}
	assert.Error(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "x\r\nBcc: evil@example.com"}))
}

func TestSMTPMailerWrapsErrors(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "jobs@example.com"})
	require.NoError(t, err)
	boom := errors.New("421 try later")
	m.(*smtpMailer).send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err = m.Send(context.Background(), Message{To: "a@example.com", Subject: "s"})
	assert.ErrorIs(t, err, boom)

	_, err = NewSMTPMailer(SMTPConfig{})
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	l, hook := test.NewNullLogger()
	require.NoError(t, NewLogMailer(l).Send(context.Background(), Message{To: "a@example.com", Subject: "s"}))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "a@example.com", hook.LastEntry().Data["to"])
}
