package delivery

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one outbound email, fully rendered.
type Message struct {
	FromName  string
	FromEmail string
	To        string
	CC        []string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// Recipients returns every address the SMTP envelope must carry.
func (m *Message) Recipients() []string {
	out := []string{m.To}
	for _, cc := range m.CC {
		if cc = strings.TrimSpace(cc); cc != "" {
			out = append(out, cc)
		}
	}
	return out
}

// buildMIME renders the RFC 5322 message as multipart/alternative with a
// text part first and the HTML part last, so clients prefer HTML.
func buildMIME(m *Message) []byte {
	messageID := fmt.Sprintf("%s@outreach", uuid.New().String())
	boundary := fmt.Sprintf("=_%s", strings.ReplaceAll(uuid.New().String(), "-", "")[:16])

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", m.FromName, m.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	if len(m.CC) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(m.CC, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&buf, "Message-ID: <%s>\r\n", messageID)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	buf.WriteString("\r\n")

	if m.TextBody != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		buf.WriteString(m.TextBody)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	buf.WriteString(m.HTMLBody)
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}
