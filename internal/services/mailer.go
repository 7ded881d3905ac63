package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
)

// ErrMailDisabled is returned when SMTP is not configured.
var ErrMailDisabled = errors.New("mail delivery not configured")

// Mailer delivers one-time codes by email.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error
}

var otpSubjects = map[models.OTPPurpose]string{
	models.OTPPurposeLogin:    "Your Vurel Login OTP",
	models.OTPPurposeRegister: "Verify Your Vurel Account",
	models.OTPPurposeReset:    "Reset Your Vurel Password",
}

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #0D2440; text-align: center;">Vurel</h2>
  <p>Your OTP code is:</p>
  <div style="background: #f5f5f5; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
    <h1 style="color: #2E5E99; letter-spacing: 8px; margin: 0;">{{.Code}}</h1>
  </div>
  <p style="color: #666; font-size: 14px;">This code expires in {{.Minutes}} minutes.</p>
  <p style="color: #666; font-size: 12px;">If you didn't request this, please ignore this email.</p>
</div>`))

// SMTPMailer sends HTML mail through an SMTP relay, upgrading to TLS when
// the server offers STARTTLS.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendOTP mails code to the recipient with a purpose-specific subject.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error {
	if !m.cfg.Enabled() {
		return ErrMailDisabled
	}

	msg, err := buildOTPMessage(m.cfg.FromName, m.cfg.User, to, code, purpose)
	if err != nil {
		return err
	}
	return m.send(ctx, to, msg)
}

func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "smtp handshake")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return errors.Wrap(err, "starttls")
		}
	}
	if m.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}
	if err := client.Mail(m.cfg.User); err != nil {
		return errors.Wrap(err, "smtp mail from")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrap(err, "smtp rcpt")
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close message")
	}
	return client.Quit()
}

func buildOTPMessage(fromName, from, to, code string, purpose models.OTPPurpose) ([]byte, error) {
	subject, ok := otpSubjects[purpose]
	if !ok {
		subject = "Your Vurel OTP"
	}

	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(otpTTL / time.Minute)}); err != nil {
		return nil, errors.Wrap(err, "render otp mail")
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
