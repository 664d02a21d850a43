package service

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer sends the password reset link. Swappable so tests don't need
// an SMTP server.
type Mailer interface {
	SendResetMail(to, link string) error
}

type SMTPMailer struct{}

func (SMTPMailer) SendResetMail(to, link string) error {
	from := viper.GetString("mail.sender")
	if from == "" {
		return errors.New("no mail sender configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Reset your password")
	m.SetBody("text/html", fmt.Sprintf(
		"Click <a href='%v'>here</a> to reset your password.<br><br>This link will expire in 1 hour. If you didn't request a reset you can ignore this email.",
		link))

	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		from,
		viper.GetString("mail.password"),
	)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reset mail, %w", err)
	}

	return nil
}
