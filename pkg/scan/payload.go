package scan

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/base64"
	"io"
	"strings"
	"unicode/utf8"
)

// Payload alphabets.
const (
	AlphabetStd = "base64"
	AlphabetURL = "base64url"
)

const (
	minStdCandidate    = 32  // minimum run length, standard alphabet
	minURLCandidate    = 43  // minimum run length, url-safe alphabet
	maxPayloadFindings = 120 // hard cap per scan
	maxPreviewChars    = 220
	maxDecompressed    = 1 << 20 // decompression bomb guard
	printableThreshold = 0.90
)

// PayloadCandidate is a contiguous substring shaped like base64: a maximal
// alphabet run plus up to two trailing padding characters. '=' is padding
// only, never an internal alphabet character.
type PayloadCandidate struct {
	Text     string
	Offset   int // byte offset into the scanned (possibly masked) text
	Length   int // candidate length in bytes, padding included
	Alphabet string
}

// DecodeResult is the decoded byte payload and the chain of decode kinds
// that produced it, e.g. "base64" or "base64->deflate_skip2".
type DecodeResult struct {
	Bytes []byte
	Chain string
}

func isStdByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '+' || b == '/'
}

func isURLByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '-' || b == '_'
}

// extractCandidates performs one maximal-munch pass over text with the given
// alphabet predicate. Maximal runs can never be preceded or followed by
// another alphabet byte, which gives the word-boundary behavior without
// regex lookaround; trailing '=' padding is taken only when it is itself
// followed by a non-alphabet byte.
func extractCandidates(text string, inClass func(byte) bool, minLen int, alphabet string) []PayloadCandidate {
	var out []PayloadCandidate
	for i := 0; i < len(text); {
		if !inClass(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && inClass(text[i]) {
			i++
		}
		runLen := i - start
		if runLen < minLen {
			continue
		}
		pad := 0
		for pad < 2 && i+pad < len(text) && text[i+pad] == '=' {
			pad++
		}
		if i+pad < len(text) && inClass(text[i+pad]) {
			pad = 0
		}
		out = append(out, PayloadCandidate{
			Text:     text[start : i+pad],
			Offset:   start,
			Length:   runLen + pad,
			Alphabet: alphabet,
		})
		i += pad
	}
	return out
}

// normalizeCandidate maps a candidate onto the canonical padded standard
// alphabet. Length mod 4 == 1 cannot be padded into a valid encoding and
// rejects the candidate.
func normalizeCandidate(c PayloadCandidate) (string, bool) {
	s := c.Text
	if c.Alphabet == AlphabetURL {
		s = strings.ReplaceAll(s, "-", "+")
		s = strings.ReplaceAll(s, "_", "/")
	}
	switch len(s) % 4 {
	case 1:
		return "", false
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return s, true
}

// magicKind identifies a known binary signature at the head of b.
func magicKind(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0x1F && b[1] == 0x8B:
		return "gzip"
	case len(b) >= 2 && b[0] == 0x78 &&
		(b[1] == 0x01 || b[1] == 0x5E || b[1] == 0x9C || b[1] == 0xDA):
		return "zlib"
	case len(b) >= 4 && b[0] == 0x50 && b[1] == 0x4B && b[2] == 0x03 && b[3] == 0x04:
		return "zip"
	case len(b) >= 4 && string(b[:4]) == "%PDF":
		return "pdf"
	}
	return ""
}

// printableRatio reports the fraction of printable runes when b is valid
// UTF-8. Printable means tab, CR, LF, ASCII 32-126, or any codepoint >= 160.
func printableRatio(b []byte) (float64, bool) {
	if len(b) == 0 || !utf8.Valid(b) {
		return 0, false
	}
	total, printable := 0, 0
	for _, r := range string(b) {
		total++
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r <= 126) || r >= 160 {
			printable++
		}
	}
	return float64(printable) / float64(total), true
}

// decompressors are the single extra stages tried when the decoded bytes
// themselves carry no signal. Raw deflate after skipping two bytes catches
// streams whose envelope got mangled in transit.
var decompressors = []struct {
	kind string
	fn   func([]byte) ([]byte, error)
}{
	{"gzip", func(b []byte) ([]byte, error) {
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(io.LimitReader(r, maxDecompressed))
	}},
	{"deflate", func(b []byte) ([]byte, error) {
		r := flate.NewReader(bytes.NewReader(b))
		defer r.Close()
		return io.ReadAll(io.LimitReader(r, maxDecompressed))
	}},
	{"deflate_skip2", func(b []byte) ([]byte, error) {
		if len(b) <= 2 {
			return nil, io.ErrUnexpectedEOF
		}
		r := flate.NewReader(bytes.NewReader(b[2:]))
		defer r.Close()
		return io.ReadAll(io.LimitReader(r, maxDecompressed))
	}},
}

// previewOf truncates decoded text to the bounded preview length, counting
// runes so a multi-byte character is never split.
func previewOf(b []byte) string {
	return previewRunes(string(b), maxPreviewChars)
}

// verifyPayload applies the false-positive defense to strictly decoded
// bytes. A candidate is reported only when the bytes match a known magic
// signature, are overwhelmingly printable UTF-8, or become one of those
// after a single decompression stage. Everything else is silently dropped.
func verifyPayload(c PayloadCandidate, decoded []byte) (Finding, bool) {
	f := Finding{
		Kind:         KindPayload,
		Offset:       c.Offset,
		Candidate:    c.Text,
		CandidateLen: c.Length,
		Alphabet:     c.Alphabet,
		DecodeKind:   "base64",
	}

	if kind := magicKind(decoded); kind != "" {
		f.Tier = TierProof
		f.Confidence = scorePayloadMagic
		f.Magic = kind
		return f, true
	}

	if ratio, ok := printableRatio(decoded); ok && ratio > printableThreshold {
		f.Tier = TierStrong
		f.Confidence = scorePayloadText
		f.PrintableRatio = ratio
		f.Preview = previewOf(decoded)
		return f, true
	}

	for _, d := range decompressors {
		inflated, err := d.fn(decoded)
		if err != nil || len(inflated) == 0 {
			continue
		}
		if kind := magicKind(inflated); kind != "" {
			f.Tier = TierStrong
			f.Confidence = scorePayloadChain
			f.DecodeKind = "base64->" + d.kind
			f.Magic = kind
			return f, true
		}
		if ratio, ok := printableRatio(inflated); ok && ratio > printableThreshold {
			f.Tier = TierStrong
			f.Confidence = scorePayloadChain
			f.DecodeKind = "base64->" + d.kind
			f.PrintableRatio = ratio
			f.Preview = previewOf(inflated)
			return f, true
		}
	}

	return Finding{}, false
}

// ScanPayloads extracts base64-shaped candidates from text and reports the
// ones that verifiably decode to something. When maskURLs is set, URL spans
// are blanked first so querystring tokens and path segments do not masquerade
// as payloads; offsets still reference the same byte positions because the
// mask preserves length.
//
// Candidates are evaluated in extraction order (standard alphabet pass, then
// url-safe pass), first-match-wins up to the findings cap. A url-safe
// candidate at the byte offset of an already-seen standard candidate is the
// same run and is skipped.
func ScanPayloads(text string, maskURLs bool) []Finding {
	scanned := text
	if maskURLs {
		scanned = MaskURLs(text, LocateURLs(text))
	}

	candidates := extractCandidates(scanned, isStdByte, minStdCandidate, AlphabetStd)
	seen := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c.Offset] = struct{}{}
	}
	for _, c := range extractCandidates(scanned, isURLByte, minURLCandidate, AlphabetURL) {
		if _, dup := seen[c.Offset]; dup {
			continue
		}
		candidates = append(candidates, c)
	}

	var findings []Finding
	for _, c := range candidates {
		if len(findings) >= maxPayloadFindings {
			break
		}
		normalized, ok := normalizeCandidate(c)
		if !ok {
			continue
		}
		decoded, err := base64.StdEncoding.Strict().DecodeString(normalized)
		if err != nil {
			continue
		}
		if f, ok := verifyPayload(c, decoded); ok {
			findings = append(findings, f)
		}
	}
	return findings
}
