package email

import (
	"mime"
	"strings"

	"github.com/google/uuid"
)

// buildMIME renders msg as an RFC 5322 message. When both bodies are set the
// result is multipart/alternative with the plain part first, so clients that
// understand HTML pick the last part.
func buildMIME(from string, msg Message) []byte {
	headers := []string{
		"From: " + from,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Message-ID: <" + uuid.NewString() + "@accounts>",
		"MIME-Version: 1.0",
	}

	var b strings.Builder
	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := "alt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		headers = append(headers, `Content-Type: multipart/alternative; boundary="`+boundary+`"`)
		b.WriteString(strings.Join(headers, "\r\n"))
		b.WriteString("\r\n\r\n")
		writePart(&b, boundary, "text/plain; charset=UTF-8", msg.TextBody)
		writePart(&b, boundary, "text/html; charset=UTF-8", msg.HTMLBody)
		b.WriteString("--" + boundary + "--\r\n")
	case msg.HTMLBody != "":
		headers = append(headers, "Content-Type: text/html; charset=UTF-8")
		b.WriteString(strings.Join(headers, "\r\n"))
		b.WriteString("\r\n\r\n")
		b.WriteString(msg.HTMLBody)
	default:
		headers = append(headers, "Content-Type: text/plain; charset=UTF-8")
		b.WriteString(strings.Join(headers, "\r\n"))
		b.WriteString("\r\n\r\n")
		b.WriteString(msg.TextBody)
	}

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: " + contentType + "\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
}

// formatAddress adds a display name when one is configured.
func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return mime.QEncoding.Encode("utf-8", name) + " <" + address + ">"
}
