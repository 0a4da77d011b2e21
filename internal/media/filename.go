package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultContainer = "mp4"
	defaultFilename  = "video"
	maxFilenameRunes = 180
)

// Filename builds the download filename for a title and container
func Filename(title, container string) string {
	if container == "" {
		container = defaultContainer
	}
	return SanitizeTitle(title) + "." + container
}

// SanitizeTitle strips control characters and characters that are reserved
// in file names on common platforms, collapsing whitespace.
func SanitizeTitle(title string) string {
	var b strings.Builder
	lastSpace := false
	count := 0
	for _, r := range strings.TrimSpace(title) {
		if count >= maxFilenameRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			if lastSpace {
				continue
			}
			r = ' '
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			r = '_'
		}
		lastSpace = r == ' '
		b.WriteRune(r)
		count++
	}
	name := strings.Trim(b.String(), " .")
	if name == "" {
		return defaultFilename
	}
	return name
}

// asciiFallback folds diacritics and replaces anything outside printable
// ASCII so the plain filename parameter stays valid.
func asciiFallback(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range folded {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' || r == '%' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContentDisposition returns an attachment header value for filename. Names
// that are not plain ASCII get an RFC 5987 filename* parameter next to the
// folded fallback.
func ContentDisposition(filename string) string {
	fallback := asciiFallback(filename)
	header := `attachment; filename="` + fallback + `"`
	if fallback == filename {
		return header
	}
	return header + "; filename*=UTF-8''" + encodeExtValue(filename)
}

// encodeExtValue percent-encodes everything outside RFC 5987 attr-char
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
