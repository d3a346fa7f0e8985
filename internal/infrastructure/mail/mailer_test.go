package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/pkg/config"
)

func TestSendPasswordReset_ArmaCorreo(t *testing.T) {
	m := NewMailer(config.SMTPConfig{
		Host: "smtp.example.com", Port: 587, User: "bot", Password: "x",
		From: "no-reply@example.com", ResetPasswordURL: "https://app.example.com/reset?lang=es",
	})
	var sent *email.Email
	var addr string
	m.send = func(e *email.Email, a string, _ smtp.Auth) error {
		sent, addr = e, a
		return nil
	}

	require.NoError(t, m.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "tok123"))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"ana@example.com"}, sent.To)
	assert.Contains(t, string(sent.Text), "https://app.example.com/reset?lang=es&token=tok123")
}

func TestSendPasswordReset_SinSMTP(t *testing.T) {
	m := NewMailer(config.SMTPConfig{ResetPasswordURL: "http://localhost/reset"})
	m.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("no debe enviar sin SMTP")
		return nil
	}
	assert.NoError(t, m.SendPasswordReset(context.Background(), "a@b.c", "A", "t"))
}

func TestSendPasswordReset_ErrorSMTP(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp", Port: 25, ResetPasswordURL: "http://localhost/reset"})
	m.send = func(*email.Email, string, smtp.Auth) error { return errors.New("conexión rechazada") }
	assert.Error(t, m.SendPasswordReset(context.Background(), "a@b.c", "A", "t"))
}
