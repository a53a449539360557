// Package mail provides a fluent SMTP mailer.
//
// Usage:
//
//	mail.To("user@example.com").
//	    Subject("Your order").
//	    Body("<h1>Thanks!</h1>").
//	    Attach("HV123.pdf", pdfBytes).
//	    Send()
//
// Messages go through a Sender; tests swap in a fake with SetSender.
package mail

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"sync"

	"github.com/herbveda/storefront/config"
)

// SMTP holds connection credentials (populated from env/config).
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func defaultSMTP() SMTP {
	user := config.Get("SMTP_USER", "")
	from := config.Get("MAIL_FROM", user)
	return SMTP{
		Host:     config.Get("SMTP_HOST", "smtp.gmail.com"),
		Port:     config.Get("SMTP_PORT", "587"),
		Username: user,
		Password: config.Get("SMTP_PASS", ""),
		From:     from,
		FromName: config.Get("MAIL_FROM_NAME", "Herb & Veda"),
	}
}

// ── Sender ───────────────────────────────────────────────────────────────────

// Sender delivers a built message. The default is SMTP; tests install fakes.
type Sender interface {
	Send(m *Message) error
}

var (
	senderMu sync.RWMutex
	sender   Sender = smtpSender{}
)

// SetSender replaces the package-level Sender (e.g. with a fake in tests).
// Returns the previous sender so tests can restore it.
func SetSender(s Sender) Sender {
	senderMu.Lock()
	defer senderMu.Unlock()
	prev := sender
	sender = s
	return prev
}

// Default returns the package-level Sender.
func Default() Sender {
	senderMu.RLock()
	defer senderMu.RUnlock()
	return sender
}

// ── Message ──────────────────────────────────────────────────────────────────

// Message is a fluent builder for an email.
type Message struct {
	to          []string
	bcc         []string
	replyTo     string
	subject     string
	htmlBody    string
	textBody    string
	attachments []Attachment
	smtpCfg     SMTP
}

// Attachment is an in-memory file attachment.
type Attachment struct {
	Name    string
	Content []byte
}

// To starts a message to the given recipients.
func To(addresses ...string) *Message {
	return &Message{
		to:      addresses,
		smtpCfg: defaultSMTP(),
	}
}

// BCC adds blind-copy recipients. Empty addresses are ignored.
func (m *Message) BCC(addresses ...string) *Message {
	for _, a := range addresses {
		if a != "" {
			m.bcc = append(m.bcc, a)
		}
	}
	return m
}

// ReplyTo sets the Reply-To header.
func (m *Message) ReplyTo(address string) *Message {
	m.replyTo = address
	return m
}

// Subject sets the email subject.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Body sets the HTML body.
func (m *Message) Body(html string) *Message {
	m.htmlBody = html
	return m
}

// Text sets a plain-text alternative body.
func (m *Message) Text(text string) *Message {
	m.textBody = text
	return m
}

// Attach adds an in-memory file attachment.
func (m *Message) Attach(name string, content []byte) *Message {
	m.attachments = append(m.attachments, Attachment{Name: name, Content: content})
	return m
}

// UseConfig overrides the SMTP settings for this message.
func (m *Message) UseConfig(cfg SMTP) *Message {
	m.smtpCfg = cfg
	return m
}

// Accessors used by fakes and assertions.
func (m *Message) Recipients() []string      { return m.to }
func (m *Message) BCCRecipients() []string   { return m.bcc }
func (m *Message) GetSubject() string        { return m.subject }
func (m *Message) HTML() string              { return m.htmlBody }
func (m *Message) PlainText() string         { return m.textBody }
func (m *Message) Attachments() []Attachment { return m.attachments }

// Send delivers the message through the package-level Sender.
func (m *Message) Send() error {
	return Default().Send(m)
}

// ── SMTP delivery ────────────────────────────────────────────────────────────

type smtpSender struct{}

func (smtpSender) Send(m *Message) error {
	cfg := m.smtpCfg
	if cfg.Username == "" {
		return fmt.Errorf("mail: SMTP_USER not configured")
	}

	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	allTo := append(append([]string{}, m.to...), m.bcc...)

	raw, err := m.buildRaw(from)
	if err != nil {
		return err
	}

	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	// Implicit TLS for port 465, STARTTLS for 587/25.
	if cfg.Port == "465" {
		return sendTLS(addr, auth, cfg.From, allTo, raw, cfg.Host)
	}
	return smtp.SendMail(addr, auth, cfg.From, allTo, raw)
}

func sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte, host string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(raw)
	return err
}

// buildRaw renders the RFC 2822 message. With attachments present the result
// is multipart/mixed wrapping a multipart/alternative body part; otherwise a
// simple single-part message.
func (m *Message) buildRaw(from string) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.to, ", ") + "\r\n")
	if m.replyTo != "" {
		b.WriteString("Reply-To: " + m.replyTo + "\r\n")
	}
	b.WriteString("Subject: " + m.subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(m.attachments) == 0 {
		contentType := "text/html"
		body := m.htmlBody
		if body == "" {
			contentType = "text/plain"
			body = m.textBody
		}
		b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType))
		b.WriteString(body)
		return b.Bytes(), nil
	}

	mixed := multipart.NewWriter(&b)
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary()))

	// Body part(s).
	if m.htmlBody != "" || m.textBody != "" {
		hdr := textproto.MIMEHeader{}
		contentType := "text/html"
		body := m.htmlBody
		if body == "" {
			contentType = "text/plain"
			body = m.textBody
		}
		hdr.Set("Content-Type", contentType+`; charset="UTF-8"`)
		part, err := mixed.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("mail: body part: %w", err)
		}
		if _, err := part.Write([]byte(body)); err != nil {
			return nil, err
		}
	}

	// Attachment parts, base64-encoded.
	for _, att := range m.attachments {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", "application/octet-stream")
		hdr.Set("Content-Transfer-Encoding", "base64")
		hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Name))
		part, err := mixed.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("mail: attachment part: %w", err)
		}

		enc := base64.StdEncoding.EncodeToString(att.Content)
		// 76-char lines per RFC 2045.
		for len(enc) > 76 {
			if _, err := part.Write([]byte(enc[:76] + "\r\n")); err != nil {
				return nil, err
			}
			enc = enc[76:]
		}
		if _, err := part.Write([]byte(enc + "\r\n")); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
