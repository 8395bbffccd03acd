// Package mailer implements the email delivery port over plain SMTP.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"skupply-market-service/internal/config"

	"github.com/rs/zerolog"
)

// SMTPSender delivers transactional mail through an SMTP relay.
type SMTPSender struct {
	addr     string
	from     string
	username string
	password string
	logger   zerolog.Logger
}

type SMTPSenderParams struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewSMTPSender creates a new SMTP-backed email sender
func NewSMTPSender(params SMTPSenderParams) *SMTPSender {
	smtpCfg := params.Config.SMTP
	return &SMTPSender{
		addr:     smtpCfg.Addr,
		from:     smtpCfg.From,
		username: smtpCfg.Username,
		password: smtpCfg.Password,
		logger:   params.Logger.With().Str("component", "smtp_sender").Logger(),
	}
}

// Send delivers one message. net/smtp has no context support, so the
// relay's own timeouts bound the call.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if s.username != "" {
		host, _, err := net.SplitHostPort(s.addr)
		if err != nil {
			host = s.addr
		}
		auth = smtp.PlainAuth("", s.username, s.password, host)
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		s.logger.Error().Err(err).Str("to", to).Msg("SMTP delivery failed")
		return fmt.Errorf("smtp send failed: %w", err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}
