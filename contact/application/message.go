package application

import (
	"html/template"
	"regexp"
	"strings"

	"contact-gateway/contact/domain"
)

// MailSettings é a parte fixa da notificação (vem da configuração).
type MailSettings struct {
	FromName      string
	FromEmail     string
	To            string
	SubjectPrefix string
}

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// normalizeHeader troca qualquer sequência de CR/LF por um espaço. Roda em todo
// valor que vai para header, mesmo já validado: a validação não proíbe quebras.
func normalizeHeader(v string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(v, " "))
}

var htmlBody = template.Must(template.New("contact").Parse(`<!doctype html>
<html>
  <body>
    <h2>New contact form submission</h2>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Message:</strong></p>
    <pre style="white-space:pre-wrap;font-family:ui-monospace,Menlo,monospace;">{{.Message}}</pre>
  </body>
</html>
`))

// BuildMessage monta a notificação. Função pura: não valida de novo o conteúdo.
func BuildMessage(s domain.Submission, cfg MailSettings) domain.MailMessage {
	subject := s.Subject
	if prefix := strings.TrimSpace(cfg.SubjectPrefix); prefix != "" {
		subject = prefix + " " + subject
	}

	var text strings.Builder
	text.WriteString("New contact form submission\n\n")
	text.WriteString("Name: " + s.Name + "\n")
	text.WriteString("Email: " + s.Email + "\n")
	text.WriteString("Subject: " + s.Subject + "\n\n")
	text.WriteString("Message:\n" + s.Message + "\n")

	var html strings.Builder
	// o template é fixo e os dados são strings; Execute só falha se o writer falhar
	_ = htmlBody.Execute(&html, s)

	return domain.MailMessage{
		FromName:  normalizeHeader(cfg.FromName),
		FromEmail: normalizeHeader(cfg.FromEmail),
		To:        normalizeHeader(cfg.To),
		ReplyTo:   normalizeHeader(s.Email),
		Subject:   normalizeHeader(subject),
		Text:      text.String(),
		HTML:      html.String(),
	}
}
