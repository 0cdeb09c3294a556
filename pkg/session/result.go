package session

// SpellAttribute is a bit in a spell verdict.
type SpellAttribute uint32

const (
	SpellInDictionary             SpellAttribute = 0x1
	SpellLooksLikeTypo            SpellAttribute = 0x2
	SpellHasRecommendedSuggestion SpellAttribute = 0x4
	SpellLooksLikeGrammarError    SpellAttribute = 0x8
	SpellDontShowUI               SpellAttribute = 0x10
)

// SpellResult is the verdict for one whole word. Zero attributes mean
// unspecified (empty input).
type SpellResult struct {
	Attributes  SpellAttribute
	Suggestions []string
}

// IsValid reports an exact dictionary hit.
func (r SpellResult) IsValid() bool {
	return r.Attributes&SpellInDictionary != 0
}

// SuggestionCandidate is one ranked entry of a suggest response.
// Confidence stays within (0, 0.9]; the range above is reserved for
// caller-side special entries.
type SuggestionCandidate struct {
	Text                     string
	SecondaryText            string
	Confidence               float64
	IsEligibleForAutoCommit  bool
	IsEligibleForUserRemoval bool
}
