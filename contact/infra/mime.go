package infra

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
)

// buildMIME serializa a mensagem como multipart/alternative (texto + HTML).
// Os valores de header já chegam sem CR/LF; aqui só são codificados (RFC 2047).
func buildMIME(msg domain.MailMessage, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := mail.Address{Name: msg.FromName, Address: msg.FromEmail}
	hdr := []struct{ k, v string }{
		{"From", from.String()},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", messageID(msg.FromEmail)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `multipart/alternative; boundary="` + mw.Boundary() + `"`},
	}
	if msg.ReplyTo != "" {
		hdr = append(hdr, struct{ k, v string }{"Reply-To", msg.ReplyTo})
	}

	var head bytes.Buffer
	for _, h := range hdr {
		fmt.Fprintf(&head, "%s: %s\r\n", h.k, h.v)
	}
	head.WriteString("\r\n")

	if err := writePart(mw, "text/plain; charset=utf-8", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=utf-8", msg.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qw := quotedprintable.NewWriter(pw)
	if _, err := qw.Write([]byte(body)); err != nil {
		return err
	}
	return qw.Close()
}

func messageID(fromEmail string) string {
	host := "localhost"
	if i := strings.LastIndexByte(fromEmail, '@'); i >= 0 && i < len(fromEmail)-1 {
		host = fromEmail[i+1:]
	}
	return "<" + uuid.NewString() + "@" + host + ">"
}
