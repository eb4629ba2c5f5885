// Package scan implements the hidden-signal detection pipeline: codepoint
// classification, bidi pairing validation, confusable token scanning,
// normalization drift detection and strict payload decoding. Every component
// is a pure function over text already resident in memory; optional external
// engines are injected through a Capabilities value and their absence
// degrades the affected check instead of failing the request.
package scan

import "fmt"

// Category buckets a codepoint by the signal channel it can carry.
type Category string

const (
	CategoryBidiControl   Category = "bidi_control"
	CategoryInvisible     Category = "invisible_space"
	CategoryVariationSel  Category = "variation_selector"
	CategoryTagChar       Category = "tag_char"
	CategoryControlFormat Category = "control_or_format"
	CategoryOther         Category = "other"
)

// The eleven bidi control codepoints, with their conventional abbreviations.
// Read-only after package init.
var bidiControls = map[rune]string{
	0x202A: "LRE",
	0x202B: "RLE",
	0x202C: "PDF",
	0x202D: "LRO",
	0x202E: "RLO",
	0x2066: "LRI",
	0x2067: "RLI",
	0x2068: "FSI",
	0x2069: "PDI",
	0x200E: "LRM",
	0x200F: "RLM",
}

// Invisible and deceptive-space codepoints flagged by the classifier.
var invisibleSet = map[rune]struct{}{
	0x200B: {}, // zero width space
	0x200C: {}, // zero width non-joiner
	0x200D: {}, // zero width joiner
	0x2060: {}, // word joiner
	0xFEFF: {}, // BOM / zero width no-break space
	0x00A0: {}, // no-break space
	0x202F: {}, // narrow no-break space
	0x2007: {}, // figure space
	0x2009: {}, // thin space
	0x200A: {}, // hair space
	0x3000: {}, // ideographic space
	0x034F: {}, // combining grapheme joiner
}

// maxUnicodeFindings bounds a single classifier scan.
const maxUnicodeFindings = 400

// Classify categorizes a single codepoint. It is pure and total over all
// scalar values. catLookup reports whether the rune's general category is
// Control or Format; pass nil when no Unicode database is available.
//
// Order matters: bidi controls are format characters too, but must come back
// as bidi_control so the pairing validator sees them, not as a generic
// control_or_format hit.
func Classify(r rune, catLookup func(rune) bool) Category {
	if _, ok := bidiControls[r]; ok {
		return CategoryBidiControl
	}
	if _, ok := invisibleSet[r]; ok {
		return CategoryInvisible
	}
	if (r >= 0xFE00 && r <= 0xFE0F) || (r >= 0xE0100 && r <= 0xE01EF) {
		return CategoryVariationSel
	}
	if r >= 0xE0000 && r <= 0xE007F {
		return CategoryTagChar
	}
	if catLookup != nil && catLookup(r) {
		return CategoryControlFormat
	}
	return CategoryOther
}

func categoryScore(cat Category) (EvidenceTier, int) {
	switch cat {
	case CategoryBidiControl:
		return TierStrong, scoreBidiControl
	case CategoryTagChar:
		return TierStrong, scoreTagChar
	case CategoryInvisible:
		return TierMedium, scoreInvisible
	case CategoryVariationSel:
		return TierMedium, scoreVariationSel
	default:
		return TierHint, scoreControlFormat
	}
}

// hexCodepoint renders r in the U+XXXX convention.
func hexCodepoint(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}

// ScanUnicode walks text rune by rune and reports every codepoint whose
// category is not CategoryOther. Indices are rune positions into the
// original, unmasked text; lines are 1-based. The scan stops after
// maxUnicodeFindings hits.
func ScanUnicode(text string, caps *Capabilities) []Finding {
	var findings []Finding
	line := 1
	index := 0
	for _, r := range text {
		if r == '\n' {
			line++
			index++
			continue
		}
		// Tabs and carriage returns are ordinary text structure, the same as
		// newlines. Without the exemption the Cc fallback would turn every
		// tab-indented or CRLF file into a wall of hint findings.
		if r == '\t' || r == '\r' {
			index++
			continue
		}
		cat := Classify(r, caps.categoryLookup())
		if cat != CategoryOther {
			tier, score := categoryScore(cat)
			findings = append(findings, Finding{
				Kind:       KindUnicode,
				Tier:       tier,
				Confidence: score,
				Index:      index,
				Line:       line,
				Codepoint:  hexCodepoint(r),
				Name:       caps.CodepointName(r),
				Category:   cat,
			})
			if len(findings) >= maxUnicodeFindings {
				break
			}
		}
		index++
	}
	return findings
}
