package scan

import (
	"unicode"

	"github.com/mtibben/confusables"
)

// Spoof-check flag bits reported by the confusable engine.
const (
	FlagMixedScript = 1 << iota // letters from two or more scripts
	FlagWholeScript             // single non-Latin script skeletonizing to ASCII
	FlagInvisible               // invisible, bidi or format codepoints inside the token
)

const (
	maxDistinctTokens  = 2000 // distinct tokens considered, first-occurrence order
	maxTokensScanned   = 500  // tokens handed to the spoof engine
	maxSuspiciousFound = 200  // suspicious tokens reported
)

// ConfusableReport is the result of one confusable scan.
type ConfusableReport struct {
	Scanned    int       `json:"scanned"`
	Suspicious []Finding `json:"suspicious"`
}

// scripts consulted for the spoof-worthy gate and the mixed-script check.
// Latin is deliberately absent: plain Latin letters, diacritics included,
// must never qualify a token on their own.
var nonLatinScripts = []*unicode.RangeTable{
	unicode.Cyrillic,
	unicode.Greek,
	unicode.Arabic,
	unicode.Hebrew,
	unicode.Han,
	unicode.Hangul,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Devanagari,
	unicode.Armenian,
	unicode.Georgian,
	unicode.Thai,
	unicode.Cherokee,
}

func isTokenRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == ':' || r == '-' {
		return true
	}
	// Invisible and format codepoints ride inside tokens: an identifier
	// split by a zero-width character still reads as one identifier.
	return Classify(r, nil) != CategoryOther
}

type token struct {
	text  string
	index int // rune index of the first occurrence
	line  int
}

// extractTokens collects maximal identifier/domain-ish runs of at least
// three runes, deduplicated in first-occurrence order, capped at
// maxDistinctTokens.
func extractTokens(text string) []token {
	var tokens []token
	seen := make(map[string]struct{})

	line := 1
	index := 0
	start, startLine := -1, 1
	var run []rune

	flush := func() {
		if start >= 0 && len(run) >= 3 {
			s := string(run)
			if _, dup := seen[s]; !dup && len(seen) < maxDistinctTokens {
				seen[s] = struct{}{}
				tokens = append(tokens, token{text: s, index: start, line: startLine})
			}
		}
		start = -1
		run = run[:0]
	}

	for _, r := range text {
		if isTokenRune(r) {
			if start < 0 {
				start, startLine = index, line
			}
			run = append(run, r)
		} else {
			flush()
			if r == '\n' {
				line++
			}
		}
		index++
	}
	flush()
	return tokens
}

// spoofWorthy is the selection gate run before the expensive engine: the
// token must carry a letter from a non-Latin script, or an invisible/bidi/
// format codepoint. Latin-script diacritics alone never pass: flooding
// ordinary prose with findings would bury the real ones.
func spoofWorthy(tok string, caps *Capabilities) bool {
	hasIdent := false
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasIdent = true
			break
		}
	}
	if !hasIdent {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			for _, script := range nonLatinScripts {
				if unicode.Is(script, r) {
					return true
				}
			}
		}
		if Classify(r, caps.categoryLookup()) != CategoryOther {
			return true
		}
	}
	return false
}

// wholeScriptConfusable reports whether the UTS #39 skeleton of a
// single-script token lands entirely in ASCII letters, meaning the token as
// a whole imitates a plain Latin word. Tokens whose skeleton keeps any
// native letter are ordinary foreign-script text and must not be reported.
func wholeScriptConfusable(tok string) bool {
	sk := confusables.Skeleton(tok)
	if sk == "" || sk == tok {
		return false
	}
	for _, r := range sk {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// defaultSuspect is the built-in spoof engine wired by DefaultCapabilities.
func defaultSuspect(tok string) (bool, int) {
	flags := 0

	hasLatin := false
	var scriptsSeen []*unicode.RangeTable
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			if Classify(r, nil) != CategoryOther {
				flags |= FlagInvisible
			}
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			hasLatin = true
			continue
		}
		for _, script := range nonLatinScripts {
			if unicode.Is(script, r) {
				already := false
				for _, s := range scriptsSeen {
					if s == script {
						already = true
						break
					}
				}
				if !already {
					scriptsSeen = append(scriptsSeen, script)
				}
				break
			}
		}
	}

	scriptCount := len(scriptsSeen)
	if hasLatin {
		scriptCount++
	}
	if scriptCount >= 2 {
		flags |= FlagMixedScript
	}
	if !hasLatin && len(scriptsSeen) == 1 && wholeScriptConfusable(tok) {
		flags |= FlagWholeScript
	}

	return flags != 0, flags
}

// ScanConfusables selects spoof-worthy tokens and asks the configured engine
// to judge them. When the engine capability is absent the report is empty;
// skeleton failures drop only the skeleton field, never the finding.
func ScanConfusables(text string, caps *Capabilities) ConfusableReport {
	report := ConfusableReport{Suspicious: []Finding{}}
	if !caps.HasConfusables() {
		return report
	}

	for _, tok := range extractTokens(text) {
		if report.Scanned >= maxTokensScanned || len(report.Suspicious) >= maxSuspiciousFound {
			break
		}
		if !spoofWorthy(tok.text, caps) {
			continue
		}
		report.Scanned++

		suspicious, flags := caps.Suspect(tok.text)
		if !suspicious {
			continue
		}
		f := Finding{
			Kind:       KindConfusable,
			Tier:       TierMedium,
			Confidence: scoreConfusable,
			Index:      tok.index,
			Line:       tok.line,
			Token:      tok.text,
			Flags:      flags,
		}
		if sk, ok := caps.skeleton(tok.text); ok {
			f.Skeleton = sk
		}
		report.Suspicious = append(report.Suspicious, f)
	}
	return report
}
