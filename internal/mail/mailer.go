package mail

import (
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/scholartrack/backend/internal/config"
)

// Mailer sends transactional mail. Send failures must never leak into
// password-reset responses; callers log and move on.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	cfg *config.Config
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMsg()
	from := m.cfg.SMTPFrom
	if from == "" {
		from = m.cfg.SMTPUser
	}
	if err := msg.FromFormat("Scholar Tracker", from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(m.cfg.SMTPHost,
		gomail.WithPort(m.cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.SMTPUser),
		gomail.WithPassword(m.cfg.SMTPPass),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client.DialAndSend(msg)
}

// PasswordResetMessage builds the reset mail bodies around the link carrying
// the raw token.
func PasswordResetMessage(resetURL, userName string) (html, text string) {
	html = fmt.Sprintf(`<html><body>
<p>Bonjour %s,</p>
<p>Vous avez demandé la réinitialisation de votre mot de passe Scholar Tracker.</p>
<p><a href="%s">Réinitialiser mon mot de passe</a></p>
<p>Ce lien expire dans 1 heure. Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>
</body></html>`, userName, resetURL)

	text = fmt.Sprintf(`Bonjour %s,

Vous avez demandé la réinitialisation de votre mot de passe Scholar Tracker.

Réinitialisez-le ici : %s

Ce lien expire dans 1 heure. Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.`, userName, resetURL)

	return html, text
}
