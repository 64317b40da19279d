// internal/sms/twiml/twiml.go
package twiml

import (
	"bytes"
	"encoding/xml"
	"strings"
	"unicode/utf8"
)

// The provider requires well-formed XML on every webhook response, including
// error paths: a raw stack trace or truncated document makes it retry the
// webhook.

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// Message renders a single-message reply, escaping the body and bounding it to
// maxLength runes (0 means unbounded).
func Message(body string, maxLength int) string {
	if maxLength > 0 {
		body = truncateRunes(body, maxLength)
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<Response><Message>")
	xml.EscapeText(&buf, []byte(body))
	buf.WriteString("</Message></Response>")
	return buf.String()
}

// Empty renders a reply with no message, used to acknowledge deduplicated
// redeliveries without texting the sender twice.
func Empty() string {
	return xmlHeader + "<Response></Response>"
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
