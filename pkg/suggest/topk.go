package suggest

import (
	"sort"

	"github.com/bastiangx/wordcore/pkg/trie"
)

// Candidate is one ranked suggestion. ConfidenceLog keys every internal
// comparison; the linear Confidence is derived once for the caller.
type Candidate struct {
	Text                     string
	SecondaryText            string
	Confidence               float64
	ConfidenceLog            float64
	IsEligibleForAutoCommit  bool
	IsEligibleForUserRemoval bool

	node *trie.Node // nil for synthetic candidates (shortcut expansions)
}

// TopK is the bounded, request-scoped result set. It keeps one slot of
// headroom over the requested count so the search can compare against the
// current k-th best while still accepting a better late arrival.
type TopK struct {
	limit    int // requested count; 0 means unbounded
	capacity int
	items    []Candidate

	minInserted    float64
	hasMinInserted bool
}

// NewTopK creates a set for up to maxSuggestions results. A zero or
// negative count means unlimited.
func NewTopK(maxSuggestions int) *TopK {
	t := &TopK{limit: maxSuggestions}
	if maxSuggestions > 0 {
		t.capacity = maxSuggestions + 1
		t.items = make([]Candidate, 0, t.capacity)
	}
	return t
}

// Insert offers a candidate to the set. A full set rejects anything below
// the minimum confidence inserted so far without mutating. Candidates for
// the same trie node collapse into one, keeping the better confidence;
// same spellings from different nodes survive as separate entries.
func (t *TopK) Insert(c Candidate) bool {
	if t.capacity > 0 && len(t.items) >= t.capacity && t.hasMinInserted && c.ConfidenceLog < t.minInserted {
		return false
	}

	if c.node != nil {
		for i := range t.items {
			if t.items[i].node == c.node {
				if c.ConfidenceLog > t.items[i].ConfidenceLog {
					t.items[i] = c
					t.resort()
					t.minInserted = t.items[len(t.items)-1].ConfidenceLog
				}
				return true
			}
		}
	}

	t.items = append(t.items, c)
	t.resort()
	if t.capacity > 0 && len(t.items) > t.capacity {
		t.items = t.items[:t.capacity]
	}
	t.minInserted = t.items[len(t.items)-1].ConfidenceLog
	t.hasMinInserted = true
	return true
}

func (t *TopK) resort() {
	sort.SliceStable(t.items, func(i, j int) bool {
		return t.items[i].ConfidenceLog > t.items[j].ConfidenceLog
	})
}

// Bound returns the confidence-log a new candidate has to beat once the
// set is saturated. The second value is false while the set still has
// room or is unbounded.
func (t *TopK) Bound() (float64, bool) {
	if t.capacity == 0 || len(t.items) < t.capacity || !t.hasMinInserted {
		return 0, false
	}
	return t.minInserted, true
}

// Ranked returns the candidates in descending confidence order, trimmed
// to the requested count.
func (t *TopK) Ranked() []Candidate {
	items := t.items
	if t.limit > 0 && len(items) > t.limit {
		items = items[:t.limit]
	}
	out := make([]Candidate, len(items))
	copy(out, items)
	return out
}

// Len returns the current number of held candidates.
func (t *TopK) Len() int {
	return len(t.items)
}
