package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/modoocon/modoocon/internal/config"
)

// SMTPSender delivers mail jobs over plain SMTP with optional attachments.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg.SMTP}
}

func (s *SMTPSender) Deliver(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail message has no recipient")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	raw, err := buildMIME(s.cfg.From, msg)
	if err != nil {
		return err
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, raw)
}

func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	if len(msg.Attachments) == 0 {
		fmt.Fprintf(&buf, "From: %s\r\n", from)
		fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
		fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
		buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(msg.Body)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	var head bytes.Buffer
	fmt.Fprintf(&head, "From: %s\r\n", from)
	fmt.Fprintf(&head, "To: %s\r\n", msg.To)
	fmt.Fprintf(&head, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&head, "MIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", `text/plain; charset="UTF-8"`)
	part, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", contentType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}
