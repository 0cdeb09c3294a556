package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/config"
	"github.com/bastiangx/wordcore/pkg/dictionary"
	"github.com/bastiangx/wordcore/pkg/suggest"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(config.DefaultSessionConfig())
	if err != nil {
		t.Fatalf("New session: %v", err)
	}
	return s
}

func seed(t *testing.T, s *Session, words map[string]int) {
	t.Helper()
	seg := graphemes.NewSegmenter("en")
	for word, score := range words {
		if err := s.UserDictionary().InsertWord(seg.Split(word), score, false, false); err != nil {
			t.Fatalf("seed %s: %v", word, err)
		}
	}
}

func defaultFlags(limit int) RequestFlags {
	return NewRequestFlags(limit, 1, ShiftUnshifted, ShiftUnshifted, false, false, false)
}

func TestSpellValidWord(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"the": 1000})

	// an exact terminal hit short-circuits regardless of other flags
	for _, flags := range []RequestFlags{
		defaultFlags(3),
		NewRequestFlags(5, 3, ShiftManual, ShiftCapsLock, true, true, true),
	} {
		result := s.Spell("the", nil, flags)
		if !result.IsValid() {
			t.Errorf("flags %#x: attributes = %#x, want IN_DICTIONARY", uint32(flags), result.Attributes)
		}
		if len(result.Suggestions) != 0 {
			t.Errorf("flags %#x: suggestions = %v, want none", uint32(flags), result.Suggestions)
		}
	}
}

func TestSpellOneEditTypo(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"the": 1000, "tie": 10})

	result := s.Spell("teh", nil, defaultFlags(3))
	if result.Attributes != SpellLooksLikeTypo {
		t.Fatalf("attributes = %#x, want LOOKS_LIKE_TYPO", result.Attributes)
	}
	want := []string{"the", "tie"}
	if len(result.Suggestions) != len(want) {
		t.Fatalf("suggestions = %v, want %v", result.Suggestions, want)
	}
	for i := range want {
		if result.Suggestions[i] != want[i] {
			t.Errorf("suggestions[%d] = %q, want %q", i, result.Suggestions[i], want[i])
		}
	}
}

func TestSpellEmptyInput(t *testing.T) {
	s := newTestSession(t)
	for _, input := range []string{"", "   "} {
		result := s.Spell(input, nil, defaultFlags(3))
		if result.Attributes != 0 || len(result.Suggestions) != 0 {
			t.Errorf("Spell(%q) = %+v, want the unspecified verdict", input, result)
		}
	}
}

func TestSpellNeverSuggestsItself(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"cat": 100, "car": 90})

	result := s.Spell("caz", nil, defaultFlags(5))
	for _, sug := range result.Suggestions {
		if sug == "caz" {
			t.Error("typo suggested itself")
		}
	}
}

func TestSuggestCaseShifting(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"hello": 500})

	testCases := []struct {
		start       ShiftState
		current     ShiftState
		want        string
		description string
	}{
		{ShiftUnshifted, ShiftUnshifted, "hello", "neutral passes through"},
		{ShiftManual, ShiftUnshifted, "Hello", "shifted start titlecases"},
		{ShiftAuto, ShiftUnshifted, "Hello", "auto shift titlecases"},
		{ShiftUnshifted, ShiftCapsLock, "HELLO", "caps lock uppercases"},
		{ShiftManual, ShiftCapsLock, "HELLO", "caps lock wins over start state"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			flags := NewRequestFlags(5, 1, tc.start, tc.current, false, false, false)
			cands := s.Suggest("hell", nil, flags)
			if len(cands) == 0 {
				t.Fatal("no candidates")
			}
			if cands[0].Text != tc.want {
				t.Errorf("top candidate = %q, want %q", cands[0].Text, tc.want)
			}
		})
	}
}

func TestCaseShiftPreservesRanking(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"hello": 500, "help": 300, "held": 200})

	plain := s.Suggest("hel", nil, defaultFlags(5))
	shifted := s.Suggest("hel", nil, NewRequestFlags(5, 1, ShiftManual, ShiftUnshifted, false, false, false))

	if len(plain) != len(shifted) {
		t.Fatalf("lengths differ: %d vs %d", len(plain), len(shifted))
	}
	seg := graphemes.NewSegmenter("en")
	for i := range plain {
		if seg.Title(plain[i].Text) != shifted[i].Text {
			t.Errorf("order changed at %d: %q vs %q", i, plain[i].Text, shifted[i].Text)
		}
	}
}

func TestSuggestOffensiveFilter(t *testing.T) {
	s := newTestSession(t)
	seg := graphemes.NewSegmenter("en")
	if err := s.UserDictionary().InsertWord(seg.Split("damn"), 800, true, false); err != nil {
		t.Fatal(err)
	}

	blocked := s.Suggest("damn", nil, defaultFlags(5))
	for _, c := range blocked {
		if c.Text == "damn" {
			t.Error("offensive candidate emitted without the allow flag")
		}
	}

	allowed := s.Suggest("damn", nil, NewRequestFlags(5, 1, ShiftUnshifted, ShiftUnshifted, true, false, false))
	if len(allowed) == 0 || allowed[0].Text != "damn" {
		t.Errorf("allowed = %v, want damn first", allowed)
	}
}

func TestTrainRoundtrip(t *testing.T) {
	cfg := config.DefaultSessionConfig()
	cfg.PredictionWeights.Words.UsageBonus = 100
	cfg.PredictionWeights.Words.UsageReductionOthers = 0
	cfg.PredictionWeights.Ngrams.UsageBonus = 100
	cfg.PredictionWeights.Ngrams.UsageReductionOthers = 0
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Train([]string{"the", "cat", "sat"}, 3); err != nil {
		t.Fatalf("Train: %v", err)
	}

	var buf bytes.Buffer
	if err := dictionary.Emit(&buf, s.UserDictionary()); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	seg := graphemes.NewSegmenter("en")
	fresh, err := New(config.DefaultSessionConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := dictionary.Parse(bytes.NewReader(buf.Bytes()), fresh.UserDictionary(), seg); err != nil {
		t.Fatalf("reparse: %v\nfile:\n%s", err, buf.String())
	}

	d := fresh.UserDictionary()
	for _, word := range []string{"the", "cat", "sat"} {
		node := d.Root().FindOrNull(seg.Split(word))
		if node == nil || node.ValueOrNull(d.ID) == nil || node.ValueOrNull(d.ID).Word == nil {
			t.Fatalf("word %q lost in roundtrip", word)
		}
		if got := node.ValueOrNull(d.ID).Word.Score; got != 100 {
			t.Errorf("%s score = %d, want the usage bonus 100", word, got)
		}
	}

	pairs := [][]string{{"the", "cat"}, {"cat", "sat"}}
	for _, pair := range pairs {
		path := dictionary.NgramPath([][]string{seg.Split(pair[0]), seg.Split(pair[1])})
		node := d.Root().FindOrNull(path)
		if node == nil || node.ValueOrNull(d.ID) == nil || node.ValueOrNull(d.ID).Ngram == nil {
			t.Errorf("bigram %v lost in roundtrip", pair)
		}
	}
	triple := dictionary.NgramPath([][]string{seg.Split("the"), seg.Split("cat"), seg.Split("sat")})
	if node := d.Root().FindOrNull(triple); node == nil || node.ValueOrNull(d.ID).Ngram == nil {
		t.Error("trigram lost in roundtrip")
	}

	// penalties settle at zero once serialized
	if got := s.UserDictionary().GlobalPenalty(dictionary.KindWord, 0); got != 0 {
		t.Errorf("word penalty after emit = %d, want 0", got)
	}
	if got := s.UserDictionary().GlobalPenalty(dictionary.KindNgram, 2); got != 0 {
		t.Errorf("bigram penalty after emit = %d, want 0", got)
	}
}

func TestTrainThenSuggestUsesHistory(t *testing.T) {
	s := newTestSession(t)
	if err := s.Train([]string{"the", "cat"}, 2); err != nil {
		t.Fatal(err)
	}
	flags := NewRequestFlags(5, 2, ShiftUnshifted, ShiftUnshifted, false, false, false)
	cands := s.Suggest("ca", []string{"the"}, flags)
	if len(cands) == 0 || cands[0].Text != "cat" {
		got := make([]string, len(cands))
		for i, c := range cands {
			got[i] = c.Text
		}
		t.Errorf("candidates = %v, want cat first", got)
	}
}

func TestPersistUserDictionary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.txt")

	cfg := config.DefaultSessionConfig()
	cfg.UserDictionary = path
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Train([]string{"hello", "world"}, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.PersistUserDictionary(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("persisted file missing: %v", err)
	}

	// a fresh session picks the persisted words back up
	reloaded, err := New(cfg)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	result := reloaded.Spell("hello", nil, defaultFlags(3))
	if !result.IsValid() {
		t.Error("persisted word not found after reload")
	}
}

func TestRequestFlagsRoundtrip(t *testing.T) {
	f := NewRequestFlags(12, 3, ShiftManual, ShiftCapsLock, true, false, true)

	if got := f.MaxSuggestionCount(); got != 12 {
		t.Errorf("MaxSuggestionCount = %d", got)
	}
	if got := f.MaxNgramLevel(); got != 3 {
		t.Errorf("MaxNgramLevel = %d", got)
	}
	if got := f.InputShiftStateStart(); got != ShiftManual {
		t.Errorf("InputShiftStateStart = %d", got)
	}
	if got := f.InputShiftStateCurrent(); got != ShiftCapsLock {
		t.Errorf("InputShiftStateCurrent = %d", got)
	}
	if !f.AllowPossiblyOffensive() || f.OverrideHiddenFlag() || !f.IsPrivateSession() {
		t.Error("boolean flags decoded wrong")
	}
	// sign bit stays clear
	if uint32(f)&0x80000000 != 0 {
		t.Error("sign bit set")
	}
}

func TestRequestFlagsClamping(t *testing.T) {
	f := NewRequestFlags(999, 99, ShiftUnshifted, ShiftUnshifted, false, false, false)
	if got := f.MaxSuggestionCount(); got != 255 {
		t.Errorf("MaxSuggestionCount = %d, want clamped 255", got)
	}
	if got := f.MaxNgramLevel(); got != 15 {
		t.Errorf("MaxNgramLevel = %d, want clamped 15", got)
	}
}

func TestSuggestConfidenceRange(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"the": 5000, "they": 100})

	for _, c := range s.Suggest("the", nil, defaultFlags(5)) {
		if c.Confidence <= 0 || c.Confidence > 0.9 {
			t.Errorf("confidence %v outside (0, 0.9]", c.Confidence)
		}
	}
}

func TestPooledFrequencyMode(t *testing.T) {
	s := newTestSession(t)
	seed(t, s, map[string]int{"hello": 500})
	s.SetFrequencyMode(suggest.FrequencyPooled)

	cands := s.Suggest("hello", nil, defaultFlags(3))
	if len(cands) == 0 || cands[0].Text != "hello" {
		t.Errorf("pooled mode candidates = %v", cands)
	}
}
