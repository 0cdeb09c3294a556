package suggest

import (
	"sort"
	"strings"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/trie"
)

// SearchType selects how the fuzzy walk emits matches.
type SearchType int

const (
	// Proximity emits every word within the cost ceiling.
	Proximity SearchType = iota
	// ProximityWithoutSelf is Proximity minus the exact query itself;
	// spell checking uses it so a typo never suggests itself.
	ProximityWithoutSelf
	// ProximityOrPrefix additionally emits words the query is a
	// case-insensitive prefix of, past the cost ceiling.
	ProximityOrPrefix
)

// matchFunc receives each surviving candidate: the trie node, the word
// text accumulated along the walk, the weighted edit cost and whether the
// match came through the prefix rule.
type matchFunc func(node *trie.Node, text string, cost float64, isPrefix bool)

// fuzzySearcher runs one weighted Damerau-Levenshtein walk over a trie
// subtree. All scratch lives on the searcher and is reused across
// recursion depths; a searcher serves exactly one request.
type fuzzySearcher struct {
	seg        *graphemes.Segmenter
	weights    *Weights
	proximity  *KeyProximityChecker
	searchType SearchType

	// query with the leading "" sentinel, and its case-flipped twin
	word         []string
	wordOpposite []string

	// token path accumulated during descent, same sentinel convention
	token []string

	// distances[i][j]: weighted cost between token[1..i] and word[1..j].
	// The two flag matrices are conjunctive prefix-equality accumulators.
	distances   [][]float64
	isEqual     [][]bool
	isEqualFold [][]bool

	// hasEntry gates emission to nodes that carry an entry of the
	// requested kind in at least one searched dictionary.
	hasEntry func(*trie.Node) bool

	// bound exposes the top-k saturation threshold (confidence-log) so
	// hopeless branches stop early. confCostRatio projects a cost lower
	// bound onto the best confidence-log the branch could still reach.
	bound         func() (float64, bool)
	confCostRatio float64

	onMatch matchFunc
}

func newFuzzySearcher(seg *graphemes.Segmenter, weights *Weights, proximity *KeyProximityChecker, searchType SearchType, query []string) *fuzzySearcher {
	s := &fuzzySearcher{
		seg:        seg,
		weights:    weights,
		proximity:  proximity,
		searchType: searchType,
	}
	s.word = make([]string, len(query)+1)
	s.wordOpposite = make([]string, len(query)+1)
	s.word[0] = ""
	for i, g := range query {
		s.word[i+1] = g
		s.wordOpposite[i+1] = seg.OppositeCase(g)
	}

	w := len(query)
	s.token = []string{""}
	row0 := make([]float64, w+1)
	eq0 := make([]bool, w+1)
	fold0 := make([]bool, w+1)
	eq0[0] = true
	fold0[0] = true
	for j := 1; j <= w; j++ {
		row0[j] = row0[j-1] + weights.insertCost(j)
	}
	s.distances = [][]float64{row0}
	s.isEqual = [][]bool{eq0}
	s.isEqualFold = [][]bool{fold0}
	return s
}

func (s *fuzzySearcher) queryLen() int {
	return len(s.word) - 1
}

func (s *fuzzySearcher) ensureDepth(i int) {
	w := s.queryLen()
	for len(s.distances) <= i {
		s.token = append(s.token, "")
		s.distances = append(s.distances, make([]float64, w+1))
		s.isEqual = append(s.isEqual, make([]bool, w+1))
		s.isEqualFold = append(s.isEqualFold, make([]bool, w+1))
	}
}

// setToken places grapheme g at token position i and recomputes row i of
// the cost matrix and both flag rows.
func (s *fuzzySearcher) setToken(i int, g string) {
	w := s.queryLen()
	s.token[i] = g
	prev := s.distances[i-1]
	row := s.distances[i]
	row[0] = prev[0] + s.weights.insertCost(i)
	s.isEqual[i][0] = false
	s.isEqualFold[i][0] = false

	for j := 1; j <= w; j++ {
		cost := prev[j] + s.weights.insertCost(i)
		if del := row[j-1] + s.weights.deleteCost(i); del < cost {
			cost = del
		}
		if diag := prev[j-1] + s.substitutionCost(i, j, g); diag < cost {
			cost = diag
		}
		// an adjacent swap is credited once for the whole pair, so the
		// transpose branch reaches back behind both swapped graphemes
		if i > 1 && j > 1 && s.token[i-1] == s.word[j] && g == s.word[j-1] {
			if tr := s.distances[i-2][j-2] + s.weights.CostTranspose; tr < cost {
				cost = tr
			}
		}
		row[j] = cost
		s.isEqual[i][j] = s.isEqual[i-1][j-1] && g == s.word[j]
		s.isEqualFold[i][j] = s.isEqualFold[i-1][j-1] && s.seg.FoldEquals(g, s.word[j])
	}
}

func (s *fuzzySearcher) substitutionCost(i, j int, g string) float64 {
	switch {
	case g == s.word[j]:
		return s.weights.CostIsEqual
	case g == s.wordOpposite[j]:
		return s.weights.CostIsEqualIgnoringCase
	case s.proximity.IsInProximity(g, s.word[j]):
		return s.weights.CostSubstituteInProximity
	default:
		return s.weights.substituteCost(i)
	}
}

// projection is the dead-end lower bound at depth i: the diagonal while
// the token is shorter than the query, the full candidate cost after.
func (s *fuzzySearcher) projection(i int) float64 {
	if w := s.queryLen(); i < w {
		return s.distances[i][i]
	}
	return s.distances[i][s.queryLen()]
}

// prefixFeasible reports whether the current token can still grow into a
// case-insensitive extension of the whole query.
func (s *fuzzySearcher) prefixFeasible(i int) bool {
	if s.searchType != ProximityOrPrefix {
		return false
	}
	w := s.queryLen()
	if i > w {
		i = w
	}
	return s.isEqualFold[i][i]
}

// Search walks the subtree under start. The start node itself is never a
// candidate (depth 0 is the sentinel row).
func (s *fuzzySearcher) Search(start *trie.Node) {
	if start == nil || s.queryLen() == 0 {
		return
	}
	s.descend(start, 1)
}

type childVisit struct {
	g     string
	child *trie.Node
	order float64
}

func (s *fuzzySearcher) descend(node *trie.Node, i int) {
	s.ensureDepth(i)

	keys := node.SortedChildKeys()
	if len(keys) == 0 {
		return
	}
	visits := make([]childVisit, 0, len(keys))
	for _, g := range keys {
		if graphemes.IsSpecial(g) {
			continue
		}
		s.setToken(i, g)
		visits = append(visits, childVisit{g: g, child: node.Child(g), order: s.projection(i)})
	}
	// cheapest-first so the top-k bound tightens as early as possible;
	// ties fall back to lexicographic for stable output
	sort.SliceStable(visits, func(a, b int) bool {
		if visits[a].order != visits[b].order {
			return visits[a].order < visits[b].order
		}
		return visits[a].g < visits[b].g
	})

	for _, v := range visits {
		s.setToken(i, v.g)
		s.emit(v.child, i)
		if s.deadEnd(i) {
			continue
		}
		s.descend(v.child, i+1)
	}
}

func (s *fuzzySearcher) emit(node *trie.Node, i int) {
	if s.hasEntry != nil && !s.hasEntry(node) {
		return
	}
	w := s.queryLen()
	cost := s.distances[i][w]

	if s.searchType == ProximityWithoutSelf && i == w && s.isEqual[w][w] {
		return
	}

	if cost <= s.weights.MaxCostSum {
		s.onMatch(node, s.tokenText(i), cost, false)
		return
	}
	// past the ceiling a word survives only through the prefix rule:
	// the whole query consumed, matching up to case
	if s.searchType == ProximityOrPrefix && i > w && s.isEqualFold[w][w] {
		s.onMatch(node, s.tokenText(i), s.distances[w][w], true)
	}
}

func (s *fuzzySearcher) deadEnd(i int) bool {
	proj := s.projection(i)
	if s.prefixFeasible(i) {
		// a prefix extension can still realize distances[W][W]
		if i >= s.queryLen() {
			if d := s.distances[s.queryLen()][s.queryLen()]; d < proj {
				proj = d
			}
		} else {
			return false
		}
	} else if proj >= s.weights.MaxCostSum {
		return true
	}
	if s.bound == nil {
		return false
	}
	if bound, ok := s.bound(); ok {
		// frequency never exceeds 1, so log2(f) <= 0 and the best
		// reachable confidence-log from here is -proj scaled
		if -proj*s.confCostRatio <= bound {
			return true
		}
	}
	return false
}

func (s *fuzzySearcher) tokenText(i int) string {
	return strings.Join(s.token[1:i+1], "")
}
