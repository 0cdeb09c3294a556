/*
Package dictionary manages the per-dictionary view onto the shared trie:
entry insertion, score and penalty accounting, frequency smoothing, and
the text file format used for persistence.

Every dictionary keeps running tallies per entry kind: the sum of all
absolute scores, the vocabulary size, and a deferred global penalty.
Training bumps the trained entry and accumulates the penalty; the penalty
is subtracted from every entry of that kind on the next recompute or
serialization, which decays untrained entries in O(1) per training step
instead of rewriting the whole dictionary.

Shortcut triggers are additionally indexed in a Patricia trie for exact
lookup and ordered enumeration at serialization time.
*/
package dictionary

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/trie"
)

// UserDictID is the reserved id of the single mutable dictionary.
const UserDictID = 0

// Kind selects one of the three entry families.
type Kind int

const (
	KindWord Kind = iota
	KindNgram
	KindShortcut
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindNgram:
		return "ngram"
	case KindShortcut:
		return "shortcut"
	}
	return "unknown"
}

// Meta mirrors the [meta] section of a dictionary file.
type Meta struct {
	Name        string
	DisplayName string
	Locales     []string
	GeneratedBy string
	Authors     []string
	License     string
}

// tally is the running accounting for one (kind, level) bucket.
type tally struct {
	TotalScore    int
	VocabSize     int
	GlobalPenalty int
}

// Dictionary is one layer of the session's dictionary stack. All
// dictionaries share one trie root; the id selects which value slot on a
// node belongs to this layer.
type Dictionary struct {
	ID       int
	Meta     Meta
	ReadOnly bool

	root      *trie.Node
	words     tally
	shortcuts tally
	ngrams    map[int]*tally // keyed by n-gram length, >= 2

	shortcutIndex *patricia.Trie // trigger -> *trie.Node
}

// New creates an empty dictionary attached to the shared root.
func New(id int, root *trie.Node) *Dictionary {
	return &Dictionary{
		ID:            id,
		root:          root,
		ngrams:        make(map[int]*tally),
		shortcutIndex: patricia.NewTrie(),
	}
}

// Root returns the shared trie root this dictionary lives in.
func (d *Dictionary) Root() *trie.Node {
	return d.root
}

func (d *Dictionary) ngramTally(level int) *tally {
	t := d.ngrams[level]
	if t == nil {
		t = &tally{}
		d.ngrams[level] = t
	}
	return t
}

func (d *Dictionary) tallyFor(kind Kind, level int) *tally {
	switch kind {
	case KindWord:
		return &d.words
	case KindShortcut:
		return &d.shortcuts
	default:
		return d.ngramTally(level)
	}
}

// TotalScore returns the score sum for a bucket. Level is ignored unless
// kind is KindNgram.
func (d *Dictionary) TotalScore(kind Kind, level int) int {
	return d.tallyFor(kind, level).TotalScore
}

// VocabSize returns the entry count for a bucket.
func (d *Dictionary) VocabSize(kind Kind, level int) int {
	return d.tallyFor(kind, level).VocabSize
}

// GlobalPenalty returns the pending deferred reduction for a bucket.
func (d *Dictionary) GlobalPenalty(kind Kind, level int) int {
	return d.tallyFor(kind, level).GlobalPenalty
}

// SmoothedFrequency estimates the relative frequency of an entry with
// additive smoothing (k = 1): (score + k) / (total + k * vocab).
func (d *Dictionary) SmoothedFrequency(score int, kind Kind, level int) float64 {
	t := d.tallyFor(kind, level)
	denom := float64(t.TotalScore + t.VocabSize)
	if denom <= 0 {
		return 0
	}
	return (float64(score) + 1) / denom
}

// InsertWord adds or replaces a word entry reached by the grapheme path.
func (d *Dictionary) InsertWord(word []string, score int, offensive, hidden bool) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}
	if score < 0 {
		score = 0
	}
	node := d.root.FindOrCreate(word)
	entry := node.ValueOrCreate(d.ID)
	if entry.Word == nil {
		entry.Word = &trie.WordProps{}
		d.words.VocabSize++
	}
	d.words.TotalScore += score - entry.Word.Score
	entry.Word.Score = score
	entry.Word.IsPossiblyOffensive = offensive
	entry.Word.IsHiddenByUser = hidden
	return nil
}

// InsertNgram adds or replaces an n-gram entry. The words are joined with
// the reserved separator to form the trie path.
func (d *Dictionary) InsertNgram(words [][]string, score int) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}
	if len(words) < 2 {
		return nil
	}
	if score < 0 {
		score = 0
	}
	node := d.root.FindOrCreate(NgramPath(words))
	entry := node.ValueOrCreate(d.ID)
	t := d.ngramTally(len(words))
	if entry.Ngram == nil {
		entry.Ngram = &trie.NgramProps{}
		t.VocabSize++
	}
	t.TotalScore += score - entry.Ngram.Score
	entry.Ngram.Score = score
	return nil
}

// InsertShortcut adds or replaces a shortcut entry and indexes its
// trigger for exact lookup.
func (d *Dictionary) InsertShortcut(trigger []string, expansion string, score int, offensive, hidden bool) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}
	if score < 0 {
		score = 0
	}
	node := d.root.FindOrCreate(trigger)
	entry := node.ValueOrCreate(d.ID)
	if entry.Shortcut == nil {
		entry.Shortcut = &trie.ShortcutProps{}
		d.shortcuts.VocabSize++
	}
	d.shortcuts.TotalScore += score - entry.Shortcut.Score
	entry.Shortcut.Score = score
	entry.Shortcut.Expansion = expansion
	entry.Shortcut.IsPossiblyOffensive = offensive
	entry.Shortcut.IsHiddenByUser = hidden
	d.shortcutIndex.Set(patricia.Prefix(strings.Join(trigger, "")), node)
	return nil
}

// LookupShortcut returns the shortcut props for an exact trigger match,
// or nil.
func (d *Dictionary) LookupShortcut(trigger string) *trie.ShortcutProps {
	item := d.shortcutIndex.Get(patricia.Prefix(trigger))
	if item == nil {
		return nil
	}
	node := item.(*trie.Node)
	entry := node.ValueOrNull(d.ID)
	if entry == nil {
		return nil
	}
	return entry.Shortcut
}

// visitShortcuts walks the trigger index in key order.
func (d *Dictionary) visitShortcuts(fn func(trigger string, node *trie.Node)) {
	err := d.shortcutIndex.Visit(func(prefix patricia.Prefix, item patricia.Item) error {
		fn(string(prefix), item.(*trie.Node))
		return nil
	})
	if err != nil {
		log.Errorf("visiting shortcut index: %v", err)
	}
}

// TrainWord applies one training step to a word entry: the entry gains
// bonus + reductionOthers while reductionOthers accumulates as a global
// penalty carried by every entry of the kind.
func (d *Dictionary) TrainWord(word []string, bonus, reductionOthers int) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}
	node := d.root.FindOrCreate(word)
	entry := node.ValueOrCreate(d.ID)
	if entry.Word == nil {
		entry.Word = &trie.WordProps{}
		d.words.VocabSize++
	}
	delta := bonus + reductionOthers
	entry.Word.Score += delta
	d.words.TotalScore += delta
	d.words.GlobalPenalty += reductionOthers
	return nil
}

// TrainNgram applies one training step to an n-gram entry.
func (d *Dictionary) TrainNgram(words [][]string, bonus, reductionOthers int) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}
	if len(words) < 2 {
		return nil
	}
	node := d.root.FindOrCreate(NgramPath(words))
	entry := node.ValueOrCreate(d.ID)
	t := d.ngramTally(len(words))
	if entry.Ngram == nil {
		entry.Ngram = &trie.NgramProps{}
		t.VocabSize++
	}
	delta := bonus + reductionOthers
	entry.Ngram.Score += delta
	t.TotalScore += delta
	t.GlobalPenalty += reductionOthers
	return nil
}

// RecalculateFrequencyScores flushes the deferred penalty for one bucket:
// every entry's score is clamped to max(0, score - penalty), the tallies
// are rebuilt from scratch, and the penalty resets to 0. Running it twice
// in a row leaves the dictionary unchanged.
func (d *Dictionary) RecalculateFrequencyScores(kind Kind, level int) {
	d.recalculate(func(k Kind, l int) bool {
		return k == kind && (kind != KindNgram || l == level)
	})
}

// RecalculateAll processes every bucket in one trie pass.
func (d *Dictionary) RecalculateAll() {
	d.recalculate(func(Kind, int) bool { return true })
}

func (d *Dictionary) recalculate(selected func(kind Kind, level int) bool) {
	wordPenalty := d.words.GlobalPenalty
	shortcutPenalty := d.shortcuts.GlobalPenalty
	ngramPenalties := make(map[int]int, len(d.ngrams))
	for level, t := range d.ngrams {
		ngramPenalties[level] = t.GlobalPenalty
	}

	if selected(KindWord, 0) {
		d.words = tally{}
	}
	if selected(KindShortcut, 0) {
		d.shortcuts = tally{}
	}
	for level := range d.ngrams {
		if selected(KindNgram, level) {
			d.ngrams[level] = &tally{}
		}
	}

	d.root.ForEach(nil, func(path []string, node *trie.Node) {
		entry := node.ValueOrNull(d.ID)
		if entry == nil {
			return
		}
		level := ngramLevelOf(path)
		if entry.Word != nil && selected(KindWord, 0) {
			entry.Word.Score = clampScore(entry.Word.Score - wordPenalty)
			d.words.TotalScore += entry.Word.Score
			d.words.VocabSize++
		}
		if entry.Shortcut != nil && selected(KindShortcut, 0) {
			entry.Shortcut.Score = clampScore(entry.Shortcut.Score - shortcutPenalty)
			d.shortcuts.TotalScore += entry.Shortcut.Score
			d.shortcuts.VocabSize++
		}
		if entry.Ngram != nil && level >= 2 && selected(KindNgram, level) {
			entry.Ngram.Score = clampScore(entry.Ngram.Score - ngramPenalties[level])
			t := d.ngramTally(level)
			t.TotalScore += entry.Ngram.Score
			t.VocabSize++
		}
	})
}

// Stats returns entry counts and score totals for status output.
func (d *Dictionary) Stats() map[string]int {
	stats := map[string]int{
		"words":          d.words.VocabSize,
		"wordScoreTotal": d.words.TotalScore,
		"shortcuts":      d.shortcuts.VocabSize,
	}
	for _, t := range d.ngrams {
		stats["ngrams"] += t.VocabSize
	}
	return stats
}

// NgramPath joins word grapheme paths with the reserved separator.
func NgramPath(words [][]string) []string {
	if len(words) == 0 {
		return nil
	}
	size := len(words) - 1
	for _, w := range words {
		size += len(w)
	}
	path := make([]string, 0, size)
	for i, w := range words {
		if i > 0 {
			path = append(path, graphemes.NgramSep)
		}
		path = append(path, w...)
	}
	return path
}

// ngramLevelOf counts how many words a trie path spans. Paths without the
// separator are level 1 (plain words / shortcut triggers).
func ngramLevelOf(path []string) int {
	level := 1
	for _, g := range path {
		if g == graphemes.NgramSep {
			level++
		}
	}
	return level
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
