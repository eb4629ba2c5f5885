package scan

import "strings"

// URLSpan is a located URL and its byte offset into the original text.
// Offsets are byte offsets throughout the masking path: the mask must not
// shift positions across multi-byte runes.
type URLSpan struct {
	URL    string `json:"url"`
	Offset int    `json:"offset"`
}

// urlStopByte reports bytes that terminate a URL token: whitespace,
// brackets and quotes.
func urlStopByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f',
		'(', ')', '[', ']', '{', '}', '<', '>',
		'"', '\'', '`':
		return true
	}
	return b < 0x20
}

// LocateURLs finds scheme-anchored http(s) URL spans. The scan is
// byte-oriented so offsets line up with MaskURLs.
func LocateURLs(text string) []URLSpan {
	var spans []URLSpan
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], "http")
		if j < 0 {
			break
		}
		start := i + j
		rest := text[start:]
		var schemeLen int
		switch {
		case strings.HasPrefix(rest, "https://"):
			schemeLen = len("https://")
		case strings.HasPrefix(rest, "http://"):
			schemeLen = len("http://")
		default:
			i = start + len("http")
			continue
		}
		end := start + schemeLen
		for end < len(text) && !urlStopByte(text[end]) {
			end++
		}
		if end > start+schemeLen {
			spans = append(spans, URLSpan{URL: text[start:end], Offset: start})
		}
		i = end
	}
	return spans
}

// MaskURLs blanks each span with an equal-length run of ASCII spaces.
// Replacement goes from the highest offset to the lowest so the offsets,
// computed once against the original text, stay valid throughout. Masking
// the same spans twice is a no-op on the already-blanked regions.
func MaskURLs(text string, spans []URLSpan) string {
	if len(spans) == 0 {
		return text
	}
	buf := []byte(text)
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if s.Offset < 0 || s.Offset+len(s.URL) > len(buf) {
			continue
		}
		for j := s.Offset; j < s.Offset+len(s.URL); j++ {
			buf[j] = ' '
		}
	}
	return string(buf)
}
