package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/VitaminP8/forumly/internal/config"
)

// Mailer — транспорт для писем верификации и сброса пароля
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailerFromEnv читает EMAIL_HOST/EMAIL_PORT/EMAIL_USER/EMAIL_PASS
func NewSMTPMailerFromEnv() *SMTPMailer {
	return &SMTPMailer{
		host:     config.GetEnv("EMAIL_HOST"),
		port:     config.GetEnvDefault("EMAIL_PORT", "465"),
		username: config.GetEnv("EMAIL_USER"),
		password: config.GetEnv("EMAIL_PASS"),
		from:     config.GetEnv("EMAIL_USER"),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: \"Discussion Forum\" <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port

	err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
	if err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

// LogMailer пишет письма в лог вместо отправки (in-memory режим, дев-окружение)
type LogMailer struct {
	log *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{log: logger}
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.log.Printf("mail to=%s subject=%q body=%q", to, subject, body)
	return nil
}
