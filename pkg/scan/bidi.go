package scan

// Bidi pairing issues. The validator is a strict bracket-matching automaton:
// it checks structural balance of the explicit directional controls, which is
// enough to catch Trojan-Source-style reordering without resolving the full
// bidirectional algorithm.
const (
	IssueUnmatchedClose  = "unmatched_close"
	IssueMismatchedClose = "mismatched_close"
	IssueUnclosedOpen    = "unclosed_open"
)

// expectedCloser maps each opener to the only control that may close it.
// LRM/RLM are non-pairing markers and never appear here.
var expectedCloser = map[rune]rune{
	0x202A: 0x202C, // LRE -> PDF
	0x202B: 0x202C, // RLE -> PDF
	0x202D: 0x202C, // LRO -> PDF
	0x202E: 0x202C, // RLO -> PDF
	0x2066: 0x2069, // LRI -> PDI
	0x2067: 0x2069, // RLI -> PDI
	0x2068: 0x2069, // FSI -> PDI
}

func isBidiCloser(r rune) bool { return r == 0x202C || r == 0x2069 }

type openEntry struct {
	opener   rune
	expected rune
	index    int // rune index into the original text
}

func pairingFinding(issue string, r rune, index, line int) Finding {
	return Finding{
		Kind:       KindBidiPairing,
		Tier:       TierStrong,
		Confidence: scoreBidiPairing,
		Index:      index,
		Line:       line,
		Issue:      issue,
		Codepoint:  hexCodepoint(r),
		Name:       bidiControls[r],
	}
}

// ValidateBidi checks each physical line of text for unbalanced directional
// controls. Lines are split on \r?\n; a line without a terminator is still
// one unit. Indices are rune positions into the whole text.
//
// A mismatched closer consumes the popped entry regardless, so one bad pair
// produces exactly one finding.
func ValidateBidi(text string) []Finding {
	var findings []Finding
	var stack []openEntry
	line := 1
	index := 0

	flushLine := func() {
		// remaining openers are reported in LIFO order
		for i := len(stack) - 1; i >= 0; i-- {
			e := stack[i]
			findings = append(findings, pairingFinding(IssueUnclosedOpen, e.opener, e.index, line))
		}
		stack = stack[:0]
	}

	for _, r := range text {
		switch {
		case r == '\n':
			flushLine()
			line++
		case expectedCloser[r] != 0:
			stack = append(stack, openEntry{opener: r, expected: expectedCloser[r], index: index})
		case isBidiCloser(r):
			if len(stack) == 0 {
				findings = append(findings, pairingFinding(IssueUnmatchedClose, r, index, line))
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.expected != r {
				findings = append(findings, pairingFinding(IssueMismatchedClose, r, index, line))
			}
		}
		index++
	}
	flushLine()
	return findings
}
