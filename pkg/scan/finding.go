package scan

// FindingKind discriminates the finding record variants.
type FindingKind string

const (
	KindUnicode       FindingKind = "unicode"
	KindBidiPairing   FindingKind = "bidi_pairing"
	KindConfusable    FindingKind = "confusable"
	KindPayload       FindingKind = "payload"
	KindNormalization FindingKind = "normalization"
)

// EvidenceTier classifies how directly a finding is verifiable without
// further interpretation. PROOF and STRONG findings are derived only from
// deterministic properties of the input (decoded bytes, codepoint identity,
// stack balance), never from heuristics alone.
type EvidenceTier string

const (
	TierProof  EvidenceTier = "PROOF"
	TierStrong EvidenceTier = "STRONG"
	TierMedium EvidenceTier = "MEDIUM"
	TierHint   EvidenceTier = "HINT"
)

// Confidence scores, monotonic with tier:
// PROOF >= 95, STRONG 80-94, MEDIUM 55-79, HINT < 55.
const (
	scorePayloadMagic  = 96
	scorePayloadChain  = 94
	scorePayloadText   = 85
	scoreBidiControl   = 85
	scoreTagChar       = 85
	scoreBidiPairing   = 82
	scoreConfusable    = 68
	scoreInvisible     = 62
	scoreVariationSel  = 58
	scoreNormDrift     = 50
	scoreControlFormat = 45
)

// Finding is a single piece of evidence produced by the pipeline.
//
// Position convention: Index counts runes into the original text and Line is
// 1-based (unicode, bidi_pairing and confusable findings); Offset counts
// bytes into the scanned text (payload findings, consistent with URL
// masking). Kind-specific fields are omitted from JSON when empty.
type Finding struct {
	Kind       FindingKind  `json:"kind"`
	Tier       EvidenceTier `json:"tier"`
	Confidence int          `json:"confidence"`

	Index  int `json:"index,omitempty"`
	Line   int `json:"line,omitempty"`
	Offset int `json:"offset,omitempty"`

	// unicode
	Codepoint string   `json:"codepoint,omitempty"`
	Name      string   `json:"name,omitempty"`
	Category  Category `json:"category,omitempty"`

	// bidi_pairing
	Issue string `json:"issue,omitempty"`

	// confusable
	Token    string `json:"token,omitempty"`
	Skeleton string `json:"skeleton,omitempty"`
	Flags    int    `json:"flags,omitempty"`

	// payload
	Candidate      string  `json:"candidate,omitempty"`
	CandidateLen   int     `json:"candidate_len,omitempty"`
	Alphabet       string  `json:"alphabet,omitempty"`
	DecodeKind     string  `json:"decode_kind,omitempty"`
	Magic          string  `json:"magic,omitempty"`
	PrintableRatio float64 `json:"printable_ratio,omitempty"`
	Preview        string  `json:"preview,omitempty"`
}
