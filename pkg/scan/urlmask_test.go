package scan

import (
	"strings"
	"testing"
)

func TestLocateURLsByteOffsets(t *testing.T) {
	// Multi-byte prefix: offsets must count bytes, not runes.
	text := "héllo https://example.com/x?y=1 and http://a.b/c."
	spans := LocateURLs(text)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].URL != "https://example.com/x?y=1" {
		t.Fatalf("unexpected first URL: %q", spans[0].URL)
	}
	if text[spans[0].Offset:spans[0].Offset+len(spans[0].URL)] != spans[0].URL {
		t.Fatalf("offset %d does not line up with the span", spans[0].Offset)
	}
	if spans[1].URL != "http://a.b/c." {
		t.Fatalf("unexpected second URL: %q", spans[1].URL)
	}
}

func TestLocateURLsStopsAtBracketsAndQuotes(t *testing.T) {
	spans := LocateURLs(`see (https://example.com/path) and "http://x.y/z"`)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].URL != "https://example.com/path" || spans[1].URL != "http://x.y/z" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestLocateURLsBareScheme(t *testing.T) {
	if spans := LocateURLs("https:// is just a scheme, httpx://no"); len(spans) != 0 {
		t.Fatalf("expected no spans, got %+v", spans)
	}
}

func TestMaskURLsPreservesLength(t *testing.T) {
	text := "x https://example.com/abc y"
	spans := LocateURLs(text)
	masked := MaskURLs(text, spans)
	if len(masked) != len(text) {
		t.Fatalf("mask changed length: %d -> %d", len(text), len(masked))
	}
	if masked != "x "+strings.Repeat(" ", len("https://example.com/abc"))+" y" {
		t.Fatalf("unexpected masked text: %q", masked)
	}
}

func TestMaskURLsIdempotent(t *testing.T) {
	// Offsets are computed once against the original text; masking again
	// with the same spans must not corrupt the blanked regions.
	text := "a http://one.example/p b https://two.example/q c"
	spans := LocateURLs(text)
	once := MaskURLs(text, spans)
	twice := MaskURLs(once, spans)
	if once != twice {
		t.Fatalf("masking is not idempotent:\n once: %q\ntwice: %q", once, twice)
	}
}
