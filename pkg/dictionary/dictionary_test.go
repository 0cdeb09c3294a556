package dictionary

import (
	"errors"
	"testing"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/trie"
)

func TestTrainWordAccounting(t *testing.T) {
	d, seg := newTestDict()

	mustInsertWord(t, d, seg, "the", 50, false, false)
	mustInsertWord(t, d, seg, "cat", 50, false, false)

	if err := d.TrainWord(seg.Split("the"), 100, 10); err != nil {
		t.Fatal(err)
	}

	if score, _ := wordScore(d, seg, "the"); score != 160 {
		t.Errorf("trained score = %d, want 160", score)
	}
	if score, _ := wordScore(d, seg, "cat"); score != 50 {
		t.Errorf("untrained score = %d, want 50", score)
	}
	if got := d.GlobalPenalty(KindWord, 0); got != 10 {
		t.Errorf("penalty = %d, want 10", got)
	}
	if got := d.TotalScore(KindWord, 0); got != 210 {
		t.Errorf("total = %d, want 210", got)
	}
}

func TestTrainCreatesEntry(t *testing.T) {
	d, seg := newTestDict()
	if err := d.TrainWord(seg.Split("new"), 100, 0); err != nil {
		t.Fatal(err)
	}
	if score, ok := wordScore(d, seg, "new"); !ok || score != 100 {
		t.Errorf("new = %d,%v want 100", score, ok)
	}
	if d.VocabSize(KindWord, 0) != 1 {
		t.Errorf("vocab = %d, want 1", d.VocabSize(KindWord, 0))
	}
}

func TestRecalculateFlushesPenaltyAndClamps(t *testing.T) {
	d, seg := newTestDict()
	mustInsertWord(t, d, seg, "big", 100, false, false)
	mustInsertWord(t, d, seg, "tiny", 3, false, false)
	// two training events on a third word, penalty builds up to 20
	if err := d.TrainWord(seg.Split("hot"), 50, 10); err != nil {
		t.Fatal(err)
	}
	if err := d.TrainWord(seg.Split("hot"), 50, 10); err != nil {
		t.Fatal(err)
	}

	d.RecalculateFrequencyScores(KindWord, 0)

	if got := d.GlobalPenalty(KindWord, 0); got != 0 {
		t.Errorf("penalty after recalc = %d, want 0", got)
	}
	if score, _ := wordScore(d, seg, "big"); score != 80 {
		t.Errorf("big = %d, want 80", score)
	}
	// 3 - 20 clamps at zero, never negative
	if score, _ := wordScore(d, seg, "tiny"); score != 0 {
		t.Errorf("tiny = %d, want 0", score)
	}
	if score, _ := wordScore(d, seg, "hot"); score != 100 {
		t.Errorf("hot = %d, want 100", score)
	}

	wantTotal := 80 + 0 + 100
	if got := d.TotalScore(KindWord, 0); got != wantTotal {
		t.Errorf("total = %d, want %d", got, wantTotal)
	}
	if got := d.VocabSize(KindWord, 0); got != 3 {
		t.Errorf("vocab = %d, want 3", got)
	}
}

func TestRecalculateIdempotent(t *testing.T) {
	d, seg := newTestDict()
	mustInsertWord(t, d, seg, "one", 10, false, false)
	if err := d.TrainWord(seg.Split("two"), 30, 5); err != nil {
		t.Fatal(err)
	}

	d.RecalculateAll()
	firstScores := map[string]int{}
	for _, w := range []string{"one", "two"} {
		firstScores[w], _ = wordScore(d, seg, w)
	}
	firstTotal := d.TotalScore(KindWord, 0)

	d.RecalculateAll()
	for _, w := range []string{"one", "two"} {
		if score, _ := wordScore(d, seg, w); score != firstScores[w] {
			t.Errorf("%s changed on second recalc: %d != %d", w, score, firstScores[w])
		}
	}
	if got := d.TotalScore(KindWord, 0); got != firstTotal {
		t.Errorf("total changed on second recalc: %d != %d", got, firstTotal)
	}
}

func TestRecalculatePerKindLeavesOthers(t *testing.T) {
	d, seg := newTestDict()
	if err := d.TrainWord(seg.Split("the"), 10, 2); err != nil {
		t.Fatal(err)
	}
	if err := d.TrainNgram([][]string{seg.Split("the"), seg.Split("cat")}, 10, 3); err != nil {
		t.Fatal(err)
	}

	d.RecalculateFrequencyScores(KindWord, 0)
	if got := d.GlobalPenalty(KindWord, 0); got != 0 {
		t.Errorf("word penalty = %d, want 0", got)
	}
	if got := d.GlobalPenalty(KindNgram, 2); got != 3 {
		t.Errorf("ngram penalty touched: %d, want 3", got)
	}
}

func TestReadOnlyGuards(t *testing.T) {
	d, seg := newTestDict()
	d.ReadOnly = true

	if err := d.InsertWord(seg.Split("x"), 1, false, false); !errors.Is(err, ErrMutationOnReadOnly) {
		t.Errorf("InsertWord error = %v", err)
	}
	if err := d.TrainWord(seg.Split("x"), 1, 0); !errors.Is(err, ErrMutationOnReadOnly) {
		t.Errorf("TrainWord error = %v", err)
	}
	if err := d.InsertShortcut(seg.Split("x"), "y", 1, false, false); !errors.Is(err, ErrMutationOnReadOnly) {
		t.Errorf("InsertShortcut error = %v", err)
	}
}

func TestSmoothedFrequency(t *testing.T) {
	d, seg := newTestDict()
	mustInsertWord(t, d, seg, "the", 99, false, false)
	mustInsertWord(t, d, seg, "cat", 0, false, false)

	// (99+1) / (99 + 2)
	want := 100.0 / 101.0
	if got := d.SmoothedFrequency(99, KindWord, 0); got != want {
		t.Errorf("freq = %v, want %v", got, want)
	}
	// zero-score entries still get the additive offset
	if got := d.SmoothedFrequency(0, KindWord, 0); got <= 0 {
		t.Errorf("zero-score freq = %v, want > 0", got)
	}
}

func TestSharedTrieAcrossDictionaries(t *testing.T) {
	root := trie.NewRoot()
	base := New(1, root)
	user := New(UserDictID, root)
	seg := graphemes.NewSegmenter("en")

	if err := base.InsertWord(seg.Split("the"), 500, false, false); err != nil {
		t.Fatal(err)
	}
	if err := user.InsertWord(seg.Split("the"), 7, false, false); err != nil {
		t.Fatal(err)
	}

	node := root.FindOrNull(seg.Split("the"))
	if node.ValueOrNull(1).Word.Score != 500 || node.ValueOrNull(UserDictID).Word.Score != 7 {
		t.Error("per-dictionary scores not independent on the shared node")
	}
}
