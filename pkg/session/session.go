/*
Package session ties the engine together: the shared trie, the layered
dictionary stack, the prediction weights and the Unicode segmenter, all
behind the readers-writer contract the host relies on.

Spell and Suggest take the shared lock for their whole duration and are
pure functions of the locked state; Train, dictionary loads and persists
take the exclusive lock. Per-request scratch never outlives a call.
*/
package session

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/config"
	"github.com/bastiangx/wordcore/pkg/dictionary"
	"github.com/bastiangx/wordcore/pkg/suggest"
	"github.com/bastiangx/wordcore/pkg/trie"
)

// Session owns one keyboard session's NLP state.
type Session struct {
	mu sync.RWMutex

	seg       *graphemes.Segmenter
	root      *trie.Node
	dicts     []*dictionary.Dictionary
	weights   suggest.PredictionWeights
	proximity suggest.KeyProximityChecker

	userDictPath  string
	frequencyMode suggest.FrequencyMode
}

// New builds a session from its config: user dictionary first (id 0,
// loaded if the file exists), then every base dictionary in order,
// marked read-only.
func New(cfg *config.SessionConfig) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultSessionConfig()
	}
	s := &Session{
		seg:          graphemes.NewSegmenter(cfg.PrimaryLocale),
		root:         trie.NewRoot(),
		weights:      cfg.PredictionWeights,
		proximity:    cfg.KeyProximityChecker,
		userDictPath: cfg.UserDictionary,
	}

	user := dictionary.New(dictionary.UserDictID, s.root)
	user.Meta.Name = "user"
	if cfg.UserDictionary != "" {
		if _, err := os.Stat(cfg.UserDictionary); err == nil {
			if err := dictionary.LoadFile(cfg.UserDictionary, user, s.seg); err != nil {
				return nil, err
			}
		} else {
			log.Debugf("no user dictionary at %s yet, starting empty", cfg.UserDictionary)
		}
	}
	s.dicts = append(s.dicts, user)

	for i, path := range cfg.BaseDictionaries {
		d := dictionary.New(i+1, s.root)
		if err := dictionary.LoadFile(path, d, s.seg); err != nil {
			return nil, fmt.Errorf("loading base dictionary %d: %w", i+1, err)
		}
		d.ReadOnly = true
		s.dicts = append(s.dicts, d)
	}
	return s, nil
}

// SetFrequencyMode switches between the mean and pooled cross-dictionary
// frequency estimators.
func (s *Session) SetFrequencyMode(mode suggest.FrequencyMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequencyMode = mode
}

// UserDictionary returns the mutable dictionary (id 0).
func (s *Session) UserDictionary() *dictionary.Dictionary {
	return s.dicts[dictionary.UserDictID]
}

func (s *Session) predictor() *suggest.Predictor {
	return &suggest.Predictor{
		Seg:           s.seg,
		Root:          s.root,
		Dicts:         s.dicts,
		Weights:       s.weights,
		Proximity:     &s.proximity,
		FrequencyMode: s.frequencyMode,
	}
}

// Suggest returns ranked completion/correction candidates for the
// current word given the preceding history.
func (s *Session) Suggest(word string, history []string, flags RequestFlags) []SuggestionCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cands := s.predictor().Predict(sentence(history, word), suggest.Options{
		MaxSuggestions:         flags.MaxSuggestionCount(),
		MaxNgramLevel:          flags.MaxNgramLevel(),
		AllowPossiblyOffensive: flags.AllowPossiblyOffensive(),
		OverrideHiddenFlag:     flags.OverrideHiddenFlag(),
		SearchType:             suggest.ProximityOrPrefix,
	})

	out := make([]SuggestionCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, SuggestionCandidate{
			Text:                     s.shiftCase(c.Text, flags),
			SecondaryText:            c.SecondaryText,
			Confidence:               c.Confidence,
			IsEligibleForAutoCommit:  c.IsEligibleForAutoCommit,
			IsEligibleForUserRemoval: c.IsEligibleForUserRemoval,
		})
	}
	return out
}

// Spell checks one whole word. Empty input yields the unspecified
// verdict; an exact terminal word hit short-circuits to valid; anything
// else is a typo with up to max_suggestion_count corrections.
func (s *Session) Spell(word string, history []string, flags RequestFlags) SpellResult {
	if strings.TrimSpace(word) == "" {
		return SpellResult{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if node := s.root.FindOrNull(s.seg.Split(word)); node != nil {
		for _, d := range s.dicts {
			if entry := node.ValueOrNull(d.ID); entry != nil && entry.Word != nil {
				return SpellResult{Attributes: SpellInDictionary}
			}
		}
	}

	cands := s.predictor().Predict(sentence(history, word), suggest.Options{
		MaxSuggestions:         flags.MaxSuggestionCount(),
		MaxNgramLevel:          flags.MaxNgramLevel(),
		AllowPossiblyOffensive: flags.AllowPossiblyOffensive(),
		OverrideHiddenFlag:     flags.OverrideHiddenFlag(),
		SearchType:             suggest.ProximityWithoutSelf,
	})

	suggestions := make([]string, 0, len(cands))
	for _, c := range cands {
		suggestions = append(suggestions, s.shiftCase(c.Text, flags))
	}
	return SpellResult{Attributes: SpellLooksLikeTypo, Suggestions: suggestions}
}

// Train feeds a typed sentence into the user dictionary: every word gets
// the usage bonus, every window of 2..maxPrevWords words (after start-of-
// sentence padding) gets the n-gram delta, and the reduction accumulates
// as the global penalty that decays everything else at the next flush.
func (s *Session) Train(words []string, maxPrevWords int) error {
	if len(words) == 0 || maxPrevWords < 1 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.dicts[dictionary.UserDictID]
	ww := s.weights.Words
	nw := s.weights.Ngrams

	paths := make([][]string, len(words))
	for i, w := range words {
		paths[i] = s.seg.Split(w)
		if err := user.TrainWord(paths[i], ww.UsageBonus, ww.UsageReductionOthers); err != nil {
			return err
		}
	}

	padded := make([][]string, 0, maxPrevWords-1+len(paths))
	for i := 0; i < maxPrevWords-1; i++ {
		padded = append(padded, []string{graphemes.SOS})
	}
	padded = append(padded, paths...)

	for k := 2; k <= maxPrevWords; k++ {
		for start := 0; start+k <= len(padded); start++ {
			if err := user.TrainNgram(padded[start:start+k], nw.UsageBonus, nw.UsageReductionOthers); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecalculateFrequencyScores flushes the user dictionary's deferred
// penalties for one entry kind.
func (s *Session) RecalculateFrequencyScores(kind dictionary.Kind, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dicts[dictionary.UserDictID].RecalculateFrequencyScores(kind, level)
}

// PersistUserDictionary writes the user dictionary to its configured
// path, flushing penalties in the process.
func (s *Session) PersistUserDictionary() error {
	if s.userDictPath == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return dictionary.SaveFile(s.userDictPath, s.dicts[dictionary.UserDictID])
}

// Stats aggregates per-dictionary entry counts for status output.
func (s *Session) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := map[string]int{"dictionaries": len(s.dicts)}
	for _, d := range s.dicts {
		for k, v := range d.Stats() {
			stats[k] += v
		}
	}
	return stats
}

// shiftCase applies the request's shift states to a candidate: caps lock
// uppercases the whole text, any other non-neutral start state
// titlecases it, everything else passes through as stored.
func (s *Session) shiftCase(text string, flags RequestFlags) string {
	switch {
	case flags.InputShiftStateCurrent() == ShiftCapsLock:
		return s.seg.Upper(text)
	case flags.InputShiftStateStart() != ShiftUnshifted:
		return s.seg.Title(text)
	default:
		return text
	}
}

// sentence joins history and the current word without aliasing the
// caller's slice.
func sentence(history []string, word string) []string {
	out := make([]string, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, word)
	return out
}
