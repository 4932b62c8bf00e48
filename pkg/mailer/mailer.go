// Package mailer sends plain SMTP email.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
)

var (
	ErrNoRecipient = errors.New("recipient email address cannot be empty")
	ErrNoSubject   = errors.New("email subject cannot be empty")
)

// Config holds the SMTP server settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(msg Message) error
}

// SMTPMailer sends email through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates an SMTPMailer.
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send validates and delivers msg.
func (m *SMTPMailer) Send(msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if msg.Subject == "" {
		return ErrNoSubject
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.sendMail(addr, auth, envelopeAddress(m.cfg.From), []string{msg.To}, buildMessage(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildMessage renders the RFC 5322 message. HTML bodies are detected by their leading tag.
func buildMessage(from string, msg Message) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(strings.TrimSpace(msg.Body))
	if strings.HasPrefix(lower, "<html>") || strings.HasPrefix(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", msg.To, from, msg.Subject, contentType, msg.Body))
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

// IsPermanent reports whether sending the same message again cannot succeed: the message
// itself is invalid or the server answered with a 5xx reply.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrNoRecipient) || errors.Is(err, ErrNoSubject) {
		return true
	}
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code >= 500
}
