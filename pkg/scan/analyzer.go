package scan

// Check names recognized by the analyzer. Unknown names are ignored.
const (
	CheckUnicodeSpecials  = "unicode_specials"
	CheckUnicodeBidi      = "unicode_bidi"
	CheckUnicodeHomoglyph = "unicode_homoglyph"
	CheckUnicodeNorm      = "unicode_norm"
	CheckPayloadBase64    = "payload_base64"
)

// CheckNames lists every supported check in the order results are assembled.
func CheckNames() []string {
	return []string{
		CheckUnicodeSpecials,
		CheckUnicodeBidi,
		CheckUnicodeHomoglyph,
		CheckUnicodeNorm,
		CheckPayloadBase64,
	}
}

// Settings are per-request knobs. MaskURLs is a pointer so an absent JSON
// field keeps its default of true.
type Settings struct {
	MaskURLs *bool `json:"mask_urls,omitempty"`
}

func (s Settings) maskURLs() bool {
	return s.MaskURLs == nil || *s.MaskURLs
}

// AnalysisRequest is one analysis call: the input text, the selected check
// names (unique, order-irrelevant) and settings. Constructed per call and
// never mutated.
type AnalysisRequest struct {
	Text     string   `json:"text"`
	Selected []string `json:"selected"`
	Settings Settings `json:"settings"`
}

// Meta surfaces capability availability verbatim so callers can tell "no
// findings" from "capability absent, check skipped".
type Meta struct {
	RequestID            string `json:"request_id,omitempty"`
	NamesAvailable       bool   `json:"names_available"`
	ConfusablesAvailable bool   `json:"confusables_available"`
	NormalizerAvailable  bool   `json:"normalizer_available"`
}

// AnalysisResponse is the findings envelope. Only requested checks appear
// under Server; the success path always carries OK=true, even when every
// check came back empty.
type AnalysisResponse struct {
	OK     bool           `json:"ok"`
	Meta   Meta           `json:"meta"`
	Server map[string]any `json:"server"`
}

// UnicodeReport is the classifier-based special-codepoint report.
type UnicodeReport struct {
	Count    int       `json:"count"`
	Findings []Finding `json:"findings"`
}

// BidiReport pairs the classifier's bidi-control hits with the structural
// pairing issues found on them.
type BidiReport struct {
	Controls []Finding `json:"controls"`
	Issues   []Finding `json:"issues"`
}

// PayloadReport is the strict-decode payload report.
type PayloadReport struct {
	Count    int       `json:"count"`
	Findings []Finding `json:"findings"`
}

// Analyzer runs the requested subset of the pipeline. It is stateless per
// request: components share no mutable state and may run in any order.
type Analyzer struct {
	caps *Capabilities
}

// NewAnalyzer builds an analyzer around the given capabilities; nil gets the
// defaults.
func NewAnalyzer(caps *Capabilities) *Analyzer {
	if caps == nil {
		caps = DefaultCapabilities()
	}
	return &Analyzer{caps: caps}
}

// Capabilities exposes the analyzer's capability set (read-only by
// convention; the tables behind it never change after construction).
func (a *Analyzer) Capabilities() *Capabilities { return a.caps }

// Analyze runs the selected checks over the request text and assembles the
// envelope. It never returns an error: partial failures degrade a single
// finding or a single check, never the whole response.
func (a *Analyzer) Analyze(req AnalysisRequest) AnalysisResponse {
	selected := make(map[string]bool, len(req.Selected))
	for _, name := range req.Selected {
		selected[name] = true
	}

	resp := AnalysisResponse{
		OK: true,
		Meta: Meta{
			NamesAvailable:       a.caps.HasNames(),
			ConfusablesAvailable: a.caps.HasConfusables(),
			NormalizerAvailable:  a.caps.HasNormalizer(),
		},
		Server: make(map[string]any, len(selected)),
	}

	// One classifier pass feeds both the specials report and the bidi
	// control listing. Offsets always reference the original text: masking
	// only ever applies to the payload scan.
	var unicodeFindings []Finding
	if selected[CheckUnicodeSpecials] || selected[CheckUnicodeBidi] {
		unicodeFindings = ScanUnicode(req.Text, a.caps)
	}

	if selected[CheckUnicodeSpecials] {
		resp.Server[CheckUnicodeSpecials] = UnicodeReport{
			Count:    len(unicodeFindings),
			Findings: ensureFindings(unicodeFindings),
		}
	}

	if selected[CheckUnicodeBidi] {
		var controls []Finding
		for _, f := range unicodeFindings {
			if f.Category == CategoryBidiControl {
				controls = append(controls, f)
			}
		}
		resp.Server[CheckUnicodeBidi] = BidiReport{
			Controls: ensureFindings(controls),
			Issues:   ensureFindings(ValidateBidi(req.Text)),
		}
	}

	if selected[CheckUnicodeHomoglyph] {
		resp.Server[CheckUnicodeHomoglyph] = ScanConfusables(req.Text, a.caps)
	}

	if selected[CheckUnicodeNorm] {
		resp.Server[CheckUnicodeNorm] = CheckNormalization(req.Text, a.caps)
	}

	if selected[CheckPayloadBase64] {
		findings := ScanPayloads(req.Text, req.Settings.maskURLs())
		resp.Server[CheckPayloadBase64] = PayloadReport{
			Count:    len(findings),
			Findings: ensureFindings(findings),
		}
	}

	return resp
}

// ensureFindings keeps empty finding lists serializing as [] instead of null.
func ensureFindings(f []Finding) []Finding {
	if f == nil {
		return []Finding{}
	}
	return f
}
