package scan

const maxNormPreviewChars = 240

// NormReport says whether the NFKC normal form of the input differs from
// the original. Drift means the text contains compatibility characters
// (fullwidth forms, ligatures, stylistic variants) that read differently
// from what a normalizing consumer will see.
type NormReport struct {
	Available bool   `json:"available"`
	Differs   bool   `json:"differs"`
	Preview   string `json:"preview,omitempty"`
}

// CheckNormalization compares the NFKC form to the original. An absent
// normalizer capability reports available:false rather than failing.
func CheckNormalization(text string, caps *Capabilities) NormReport {
	if !caps.HasNormalizer() {
		return NormReport{}
	}
	normalized := caps.NormalizeNFKC(text)
	report := NormReport{Available: true, Differs: normalized != text}
	if report.Differs {
		report.Preview = previewRunes(normalized, maxNormPreviewChars)
	}
	return report
}

func previewRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
