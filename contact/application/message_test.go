package application

import (
	"strings"
	"testing"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
)

var testSettings = MailSettings{
	FromName:      "Website",
	FromEmail:     "noreply@example.org",
	To:            "office@example.org",
	SubjectPrefix: "[Website Contact]",
}

func TestBuildMessage_Fields(t *testing.T) {
	msg := BuildMessage(domain.Submission{
		Name:    "Ana",
		Email:   "ana@example.com",
		Subject: "Hi",
		Message: "Hello there",
	}, testSettings)

	assert.Equal(t, "Website <noreply@example.org>", msg.From())
	assert.Equal(t, "office@example.org", msg.To)
	assert.Equal(t, "ana@example.com", msg.ReplyTo)
	assert.Equal(t, "[Website Contact] Hi", msg.Subject)
	assert.Contains(t, msg.Text, "Name: Ana\n")
	assert.Contains(t, msg.Text, "Message:\nHello there\n")
	assert.Contains(t, msg.HTML, "<p><strong>Name:</strong> Ana</p>")
}

func TestBuildMessage_EscapesHTMLButNotText(t *testing.T) {
	msg := BuildMessage(domain.Submission{
		Name:    `<script>alert("x")</script>`,
		Email:   "ana@example.com",
		Subject: "Tom & Jerry",
		Message: "1 < 2 'ok'",
	}, testSettings)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.HTML, "Tom &amp; Jerry")
	assert.Contains(t, msg.HTML, "1 &lt; 2 &#39;ok&#39;")

	assert.Contains(t, msg.Text, `<script>alert("x")</script>`)
	assert.Contains(t, msg.Text, "Tom & Jerry")
}

func TestBuildMessage_StripsLineBreaksFromHeaders(t *testing.T) {
	msg := BuildMessage(domain.Submission{
		Name:    "Ana",
		Email:   "ana@example.com\r\nBcc: victim@example.net",
		Subject: "Hi\r\nBcc: victim@example.net\n\nbody",
		Message: "line 1\nline 2",
	}, testSettings)

	for _, h := range []string{msg.Subject, msg.ReplyTo, msg.From(), msg.To} {
		assert.False(t, strings.ContainsAny(h, "\r\n"), "header value %q has a line break", h)
	}
	assert.Equal(t, "[Website Contact] Hi Bcc: victim@example.net body", msg.Subject)
	assert.Contains(t, msg.Text, "line 1\nline 2")
}

func TestBuildMessage_NoPrefix(t *testing.T) {
	msg := BuildMessage(domain.Submission{Subject: "Hi"}, MailSettings{FromEmail: "a@b.c"})
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "a@b.c", msg.From())
}
