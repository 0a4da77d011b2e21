package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Redactor masks secrets in log fields and messages
type Redactor struct {
	keys     []string
	patterns []*regexp.Regexp
}

// NewRedactor creates a redactor. A field is masked when its lower-cased key
// contains any of keys; message text is masked wherever a pattern matches.
func NewRedactor(keys []string, patterns []*regexp.Regexp) *Redactor {
	lower := make([]string, len(keys))
	for i, k := range keys {
		lower[i] = strings.ToLower(k)
	}
	return &Redactor{keys: lower, patterns: patterns}
}

// DefaultRedactor masks credentials, cookies and bearer material
func DefaultRedactor() *Redactor {
	return NewRedactor(
		[]string{"password", "token", "secret", "api_key", "apikey", "authorization", "cookie"},
		[]*regexp.Regexp{
			regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
			regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`),
			regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`),
		},
	)
}

// Redact masks pattern matches in s
func (r *Redactor) Redact(s string) string {
	if r == nil || s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

// RedactFields returns a copy of fields with sensitive values masked.
// Nested maps are walked; string values are pattern-redacted.
func (r *Redactor) RedactFields(fields map[string]interface{}) map[string]interface{} {
	if r == nil || fields == nil {
		return fields
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if r.sensitive(k) {
			out[k] = redacted
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = r.Redact(val)
		case map[string]interface{}:
			out[k] = r.RedactFields(val)
		case error:
			out[k] = r.Redact(val.Error())
		default:
			out[k] = v
		}
	}
	return out
}

func (r *Redactor) sensitive(key string) bool {
	key = strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
