package logger

import (
	"strings"

	"github.com/ignite/emailtype/internal/emailaddr"
)

// RedactEmail masks an email address for safe logging.
// "John.Doe@Example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
// Valid addresses are canonicalized first, so case variants redact alike.
func RedactEmail(email string) string {
	if a, err := emailaddr.Parse(email); err == nil {
		return mask(a.Local(), a.Domain())
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	return mask(parts[0], parts[1])
}

func mask(local, domain string) string {
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
