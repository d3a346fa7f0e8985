package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/stock-api/pkg/config"
)

// Mailer envía los correos de recuperación de contraseña por SMTP.
type Mailer struct {
	cfg  config.SMTPConfig
	addr string
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewMailer construye el mailer con la configuración SMTP.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		send: func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

// SendPasswordReset envía el enlace con el token de recuperación.
// Sin SMTP configurado solo registra el envío (entornos de desarrollo).
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link, err := resetLink(m.cfg.ResetPasswordURL, token)
	if err != nil {
		return err
	}
	if !m.cfg.Enabled() {
		log.Info().Str("to", to).Msg("SMTP no configurado: correo de recuperación no enviado")
		return nil
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = "Recuperación de contraseña"
	e.Text = []byte(fmt.Sprintf(
		"Hola %s,\n\nPara restablecer tu contraseña ingresa a:\n%s\n\nEl enlace vence en unos minutos. Si no lo pediste, ignora este correo.\n",
		name, link))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(e, m.addr, auth); err != nil {
		return fmt.Errorf("mailer: enviar recuperación: %w", err)
	}
	return nil
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("mailer: RESET_PASSWORD_URL inválida: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
