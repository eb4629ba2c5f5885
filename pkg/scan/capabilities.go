package scan

import (
	"unicode"
	"unicode/utf8"

	"github.com/mtibben/confusables"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// Capabilities carries the optional external engines the pipeline consults.
// It is constructed once and passed into the Analyzer rather than probed ad
// hoc, so capability-absent behavior is explicit and testable: a nil field
// means the engine is missing and the affected check degrades to an
// empty/unavailable result. Nothing here is ever fatal.
type Capabilities struct {
	// Name resolves a codepoint to its Unicode character name.
	Name func(rune) string

	// IsControlOrFormat reports whether the general category of the rune is
	// Control or Format.
	IsControlOrFormat func(rune) bool

	// NormalizeNFKC computes the compatibility-decomposed, canonically
	// composed normal form.
	NormalizeNFKC func(string) string

	// Suspect judges a token for spoofing: mixed-script, whole-script
	// confusable and invisible-character checks. It returns a suspicion flag
	// and a bitmask of the checks that fired.
	Suspect func(string) (bool, int)

	// Skeleton computes the UTS #39 confusable skeleton. ok=false means the
	// computation did not produce a usable skeleton for this input; the
	// caller omits the field and carries on.
	Skeleton func(string) (string, bool)
}

// DefaultCapabilities wires every engine the binary ships with: codepoint
// names from x/text runenames, general categories from the runtime Unicode
// tables, NFKC from x/text norm, and UTS #39 skeletons from the confusables
// package.
func DefaultCapabilities() *Capabilities {
	return &Capabilities{
		Name: runenames.Name,
		IsControlOrFormat: func(r rune) bool {
			return unicode.In(r, unicode.Cc, unicode.Cf)
		},
		NormalizeNFKC: norm.NFKC.String,
		Suspect:       defaultSuspect,
		Skeleton: func(s string) (string, bool) {
			sk := confusables.Skeleton(s)
			if sk == "" || !utf8.ValidString(sk) {
				return "", false
			}
			return sk, true
		},
	}
}

// CodepointName resolves a display name, falling back to "UNKNOWN" when the
// name capability is absent or has no entry.
func (c *Capabilities) CodepointName(r rune) string {
	if c == nil || c.Name == nil {
		return "UNKNOWN"
	}
	if n := c.Name(r); n != "" {
		return n
	}
	return "UNKNOWN"
}

// categoryLookup returns the general-category predicate, or nil when absent.
func (c *Capabilities) categoryLookup() func(rune) bool {
	if c == nil {
		return nil
	}
	return c.IsControlOrFormat
}

// HasNames reports whether codepoint-name resolution is available.
func (c *Capabilities) HasNames() bool { return c != nil && c.Name != nil }

// HasConfusables reports whether the spoof-detection engine is available.
func (c *Capabilities) HasConfusables() bool { return c != nil && c.Suspect != nil }

// HasNormalizer reports whether NFKC normalization is available.
func (c *Capabilities) HasNormalizer() bool { return c != nil && c.NormalizeNFKC != nil }

func (c *Capabilities) skeleton(s string) (string, bool) {
	if c == nil || c.Skeleton == nil {
		return "", false
	}
	return c.Skeleton(s)
}
