package utils

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

const appName = "LearnHub"

// Mailer sends transactional emails through SendGrid. A Mailer without an
// API key only logs what it would have sent.
type Mailer struct {
	key  string
	from *sgmail.Email
	log  zerolog.Logger
	send func(m *sgmail.SGMailV3) error
}

func NewMailer(apiKey, fromEmail string, log zerolog.Logger) *Mailer {
	m := &Mailer{
		key:  apiKey,
		from: sgmail.NewEmail(appName, fromEmail),
		log:  log.With().Str("component", "mailer").Logger(),
	}
	m.send = m.sendgrid
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.key != ""
}

// SendEmail renders the html body into the common template and sends it
// in the background.
func (m *Mailer) SendEmail(toName, toEmail, subject, title, htmlBody string) {
	if m == nil {
		return
	}
	if !m.Enabled() {
		m.log.Debug().Str("to", toEmail).Str("subject", subject).Msg("email skipped, no sendgrid key")
		return
	}

	msg := sgmail.NewSingleEmail(
		m.from,
		"["+appName+"] "+subject,
		sgmail.NewEmail(toName, toEmail),
		title,
		getEmailTemplate(title, htmlBody),
	)
	go func() {
		if err := m.send(msg); err != nil {
			m.log.Error().Err(err).Str("to", toEmail).Str("subject", subject).Msg("sending email failed")
			return
		}
		m.log.Info().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	}()
}

func (m *Mailer) sendgrid(msg *sgmail.SGMailV3) error {
	resp, err := sendgrid.NewSendClient(m.key).Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1D3557; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; }
			.content { padding: 40px 30px; color: #1D3557; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #E63946; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>LEARNHUB</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">&copy; %d LearnHub. All rights reserved.</div>
		</div>
	</body>
	</html>
	`, title, bodyContent, time.Now().Year())
}

func (m *Mailer) SendEnrollmentEmail(email, name, courseTitle string, amount decimal.Decimal, transactionID string) {
	paid := "This course is free."
	if amount.IsPositive() {
		paid = fmt.Sprintf("We received your payment of <strong>%s</strong>.", amount.StringFixed(2))
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>. %s</p>
		<div class="info-box">Transaction ID: %s</div>
	`, name, courseTitle, paid, transactionID)

	m.SendEmail(name, email, "Enrollment confirmed: "+courseTitle, "Welcome to your course", body)
}

func (m *Mailer) SendCertificateEmail(email, name, courseTitle string, issuedAt time.Time) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing <strong>%s</strong>.</p>
		<div class="info-box">Certificate issued on %s</div>
	`, name, courseTitle, issuedAt.Format("02 Jan 2006"))

	m.SendEmail(name, email, "Certificate earned: "+courseTitle, "Course completed", body)
}

func (m *Mailer) SendProgressReminder(email, name, courseTitle string, completed, total int) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have completed %d of %d sections in <strong>%s</strong>.</p>
		<p>Pick up where you left off.</p>
	`, name, completed, total, courseTitle)

	m.SendEmail(name, email, "Continue "+courseTitle, "Keep learning", body)
}

func (m *Mailer) SendPasswordResetEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We received a request to reset your password. Contact support if this was not you.</p>
	`, name)

	m.SendEmail(name, email, "Password reset", "Reset your password", body)
}
