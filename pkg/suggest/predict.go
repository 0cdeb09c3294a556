/*
Package suggest implements the candidate generation and ranking core: a
weighted Damerau-Levenshtein fuzzy walk over the shared trie, n-gram
context lookup with add-k smoothed frequencies, and the bounded top-k
result set.

The entry point is the Predictor, which fans a request out over every
n-gram order the caller allows, merges scores across the searched
dictionaries, and ranks by a log-domain confidence mixing edit similarity
with frequency:

	confidence_log = (w1*(-cost) + w2*log2(frequency)) / (w1 + w2)

All intra-search comparisons stay in the log domain; the linear value is
derived once per returned candidate and capped at 0.9 - the range above
is reserved for caller-side entries (contacts, clipboard) and never
emitted here.
*/
package suggest

import (
	"math"
	"strings"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/dictionary"
	"github.com/bastiangx/wordcore/pkg/trie"
)

// Confidence mixing weights: similarity dominates, frequency breaks ties.
const (
	weightSimilarity = 1.0
	weightFrequency  = 0.1

	// MaxEmittedConfidence caps every candidate the core returns.
	MaxEmittedConfidence = 0.9
)

// FrequencyMode selects how per-dictionary smoothed frequencies combine.
type FrequencyMode int

const (
	// FrequencyMean averages the per-dictionary smoothed frequencies.
	FrequencyMean FrequencyMode = iota
	// FrequencyPooled divides summed numerators by summed denominators.
	FrequencyPooled
)

// Options bound one prediction request.
type Options struct {
	MaxSuggestions         int
	MaxNgramLevel          int
	AllowPossiblyOffensive bool
	OverrideHiddenFlag     bool
	SearchType             SearchType
}

// Predictor orchestrates fuzzy searches across the dictionary stack. It
// is a pure reader of the locked session state; per-request scratch lives
// on the stack of Predict.
type Predictor struct {
	Seg           *graphemes.Segmenter
	Root          *trie.Node
	Dicts         []*dictionary.Dictionary
	Weights       PredictionWeights
	Proximity     *KeyProximityChecker
	FrequencyMode FrequencyMode
}

// Predict ranks candidates for a sentence whose last element is the
// (possibly empty) current word. Results come back ordered by descending
// confidence, deduplicated by final text.
func (p *Predictor) Predict(sentence []string, opts Options) []Candidate {
	if len(sentence) == 0 {
		return nil
	}
	current := sentence[len(sentence)-1]
	query := p.Seg.Split(current)

	topk := NewTopK(opts.MaxSuggestions)

	maxN := opts.MaxNgramLevel
	if maxN < 1 {
		maxN = 1
	}
	if maxN > len(sentence) {
		maxN = len(sentence)
	}

	for n := 1; n <= maxN; n++ {
		if n == 1 {
			if current == "" {
				continue
			}
			st := opts.SearchType
			// tiny inputs explode under prefix extension
			if st == ProximityOrPrefix && len(query) < 3 {
				st = Proximity
			}
			// shortcuts go in first: an exact word hit can tie the
			// expansion's confidence-log of 0, and ties keep insertion order
			p.matchShortcuts(topk, current, opts)
			p.runSearch(topk, p.Root, query, dictionary.KindWord, 0, st, opts)
			continue
		}
		context := sentence[len(sentence)-n : len(sentence)-1]
		for _, ctxNode := range p.resolveContext(context) {
			sep := ctxNode.Child(graphemes.NgramSep)
			if sep == nil || !hasUserNgram(sep) {
				continue
			}
			p.runSearch(topk, sep, query, dictionary.KindNgram, n, opts.SearchType, opts)
		}
	}

	return finalize(topk, opts.MaxSuggestions)
}

func (p *Predictor) weightsFor(kind dictionary.Kind) *Weights {
	if kind == dictionary.KindNgram {
		return &p.Weights.Ngrams
	}
	return &p.Weights.Words
}

// specialTokens terminate word enumeration below an n-gram separator.
var specialTokens = map[string]struct{}{
	graphemes.SOS:      {},
	graphemes.NgramSep: {},
}

func (p *Predictor) runSearch(topk *TopK, start *trie.Node, query []string, kind dictionary.Kind, level int, st SearchType, opts Options) {
	if len(query) == 0 {
		// nothing typed yet: next-word prediction ranks the context's
		// continuations on frequency alone
		p.enumerate(topk, start, kind, level, opts)
		return
	}
	s := newFuzzySearcher(p.Seg, p.weightsFor(kind), p.Proximity, st, query)
	s.confCostRatio = weightSimilarity / (weightSimilarity + weightFrequency)
	s.bound = topk.Bound
	s.hasEntry = func(node *trie.Node) bool {
		for _, d := range p.Dicts {
			if entryScore(node.ValueOrNull(d.ID), kind) >= 0 {
				return true
			}
		}
		return false
	}
	s.onMatch = func(node *trie.Node, text string, cost float64, isPrefix bool) {
		offensive, hidden := mergedFlags(node, p.Dicts, kind)
		if offensive && !opts.AllowPossiblyOffensive {
			return
		}
		if hidden && !opts.OverrideHiddenFlag {
			return
		}
		freq := p.frequency(node, kind, level)
		if freq <= 0 {
			return
		}
		confLog := (weightSimilarity*(-cost) + weightFrequency*math.Log2(freq)) /
			(weightSimilarity + weightFrequency)
		topk.Insert(Candidate{
			Text:                     text,
			ConfidenceLog:            confLog,
			IsEligibleForAutoCommit:  !isPrefix && cost <= p.weightsFor(kind).CostIsEqualIgnoringCase,
			IsEligibleForUserRemoval: inUserDictionary(node, kind),
			node:                     node,
		})
	}
	s.Search(start)
}

// enumerate emits every entry of the requested kind below start at edit
// cost zero, so confidence reduces to the frequency term.
func (p *Predictor) enumerate(topk *TopK, start *trie.Node, kind dictionary.Kind, level int, opts Options) {
	if start == nil {
		return
	}
	start.ForEach(specialTokens, func(path []string, node *trie.Node) {
		if len(path) == 0 {
			return
		}
		offensive, hidden := mergedFlags(node, p.Dicts, kind)
		if offensive && !opts.AllowPossiblyOffensive {
			return
		}
		if hidden && !opts.OverrideHiddenFlag {
			return
		}
		freq := p.frequency(node, kind, level)
		if freq <= 0 {
			return
		}
		confLog := weightFrequency * math.Log2(freq) / (weightSimilarity + weightFrequency)
		topk.Insert(Candidate{
			Text:                     strings.Join(path, ""),
			ConfidenceLog:            confLog,
			IsEligibleForUserRemoval: inUserDictionary(node, kind),
			node:                     node,
		})
	})
}

// matchShortcuts resolves the current word against every dictionary's
// shortcut triggers; an exact hit inserts the expansion as a synthetic
// top candidate at confidence 2^0.
func (p *Predictor) matchShortcuts(topk *TopK, current string, opts Options) {
	for _, d := range p.Dicts {
		sc := d.LookupShortcut(current)
		if sc == nil {
			continue
		}
		if sc.IsPossiblyOffensive && !opts.AllowPossiblyOffensive {
			continue
		}
		if sc.IsHiddenByUser && !opts.OverrideHiddenFlag {
			continue
		}
		topk.Insert(Candidate{
			Text:                     sc.Expansion,
			SecondaryText:            current,
			ConfidenceLog:            0,
			IsEligibleForAutoCommit:  true,
			IsEligibleForUserRemoval: d.ID == dictionary.UserDictID,
		})
	}
}

// resolveContext descends the n-gram chain for the history words that
// precede the current one, staying inside the user dictionary's n-gram
// subtree: every step must still lead to a chain the user dictionary
// owns, so chains present only in base dictionaries never resolve.
// Matching is case-insensitive and every case variant present in the
// trie is followed, so the result can be several nodes.
func (p *Predictor) resolveContext(words []string) []*trie.Node {
	nodes := []*trie.Node{p.Root}
	for i, word := range words {
		if i > 0 {
			nodes = stepSeparator(nodes)
			if len(nodes) == 0 {
				return nil
			}
		}
		nodes = p.matchWordFold(nodes, p.Seg.Split(word))
		if len(nodes) == 0 {
			return nil
		}
	}
	return nodes
}

func stepSeparator(nodes []*trie.Node) []*trie.Node {
	next := nodes[:0:0]
	for _, n := range nodes {
		if sep := n.Child(graphemes.NgramSep); sep != nil && hasUserNgram(sep) {
			next = append(next, sep)
		}
	}
	return next
}

// matchWordFold advances every frontier node along one word, following
// the stored grapheme, its lower and its upper variant at each step.
// Children with no user-dictionary n-gram entry anywhere beneath them
// are dead branches for context purposes and are not followed.
func (p *Predictor) matchWordFold(frontier []*trie.Node, word []string) []*trie.Node {
	for _, g := range word {
		variants := caseVariants(p.Seg, g)
		next := make([]*trie.Node, 0, len(frontier))
		for _, n := range frontier {
			for _, v := range variants {
				if child := n.Child(v); child != nil && hasUserNgram(child) {
					next = append(next, child)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			return nil
		}
	}
	return frontier
}

// hasUserNgram reports whether node or any descendant carries an n-gram
// entry of the user dictionary (id 0).
func hasUserNgram(node *trie.Node) bool {
	if entry := node.ValueOrNull(dictionary.UserDictID); entry != nil && entry.Ngram != nil {
		return true
	}
	for _, g := range node.SortedChildKeys() {
		if hasUserNgram(node.Child(g)) {
			return true
		}
	}
	return false
}

func caseVariants(seg *graphemes.Segmenter, g string) []string {
	variants := []string{g}
	if lower := seg.Lower(g); lower != g {
		variants = append(variants, lower)
	}
	if upper := seg.Upper(g); upper != g && upper != variants[len(variants)-1] {
		variants = append(variants, upper)
	}
	return variants
}

// frequency merges the smoothed per-dictionary frequencies of a node.
func (p *Predictor) frequency(node *trie.Node, kind dictionary.Kind, level int) float64 {
	var sum, poolNum, poolDen float64
	var count int
	for _, d := range p.Dicts {
		score := entryScore(node.ValueOrNull(d.ID), kind)
		if score < 0 {
			continue
		}
		sum += d.SmoothedFrequency(score, kind, level)
		poolNum += float64(score) + 1
		poolDen += float64(d.TotalScore(kind, level) + d.VocabSize(kind, level))
		count++
	}
	if count == 0 {
		return 0
	}
	if p.FrequencyMode == FrequencyPooled {
		if poolDen <= 0 {
			return 0
		}
		return poolNum / poolDen
	}
	return sum / float64(count)
}

// entryScore extracts the score of the requested kind, or -1 when the
// entry does not participate in that kind.
func entryScore(entry *trie.Entry, kind dictionary.Kind) int {
	if entry == nil {
		return -1
	}
	switch kind {
	case dictionary.KindWord:
		if entry.Word != nil {
			return entry.Word.Score
		}
	case dictionary.KindNgram:
		if entry.Ngram != nil {
			return entry.Ngram.Score
		}
	case dictionary.KindShortcut:
		if entry.Shortcut != nil {
			return entry.Shortcut.Score
		}
	}
	return -1
}

func mergedFlags(node *trie.Node, dicts []*dictionary.Dictionary, kind dictionary.Kind) (offensive, hidden bool) {
	if kind == dictionary.KindNgram {
		return false, false
	}
	for _, d := range dicts {
		entry := node.ValueOrNull(d.ID)
		if entry == nil {
			continue
		}
		if kind == dictionary.KindWord && entry.Word != nil {
			offensive = offensive || entry.Word.IsPossiblyOffensive
			hidden = hidden || entry.Word.IsHiddenByUser
		}
		if kind == dictionary.KindShortcut && entry.Shortcut != nil {
			offensive = offensive || entry.Shortcut.IsPossiblyOffensive
			hidden = hidden || entry.Shortcut.IsHiddenByUser
		}
	}
	return offensive, hidden
}

func inUserDictionary(node *trie.Node, kind dictionary.Kind) bool {
	entry := node.ValueOrNull(dictionary.UserDictID)
	return entryScore(entry, kind) >= 0
}

// finalize ranks, deduplicates by final text (first occurrence wins) and
// derives the linear confidence.
func finalize(topk *TopK, limit int) []Candidate {
	ranked := topk.Ranked()
	seen := make(map[string]bool, len(ranked))
	out := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		c.Confidence = math.Exp2(c.ConfidenceLog)
		if c.Confidence > MaxEmittedConfidence {
			c.Confidence = MaxEmittedConfidence
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
