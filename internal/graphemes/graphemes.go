// Package graphemes wraps UAX#29 grapheme segmentation and locale-aware
// case mapping for the engine. Every trie key and every edit-distance step
// operates on the cluster strings this package produces, never on raw
// bytes or code points.
package graphemes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reserved single-byte tokens. Any single byte below 0x20 is "special":
// excluded from fuzzy traversal, walked exactly during n-gram descent.
const (
	// SOS pads the start of a sentence when training n-grams.
	SOS = "\x02"
	// NgramSep separates words inside an n-gram chain in the trie.
	NgramSep = "\x1e"
)

// IsSpecial reports whether g is one of the reserved sub-0x20 tokens.
func IsSpecial(g string) bool {
	return len(g) == 1 && g[0] < 0x20
}

// Segmenter splits text into grapheme clusters and performs case ops
// under a fixed locale. Case transforms allocate a fresh caser per call:
// x/text casers carry transform state and sessions read concurrently.
type Segmenter struct {
	tag language.Tag
}

// NewSegmenter parses a BCP-47 tag. An empty or unparseable tag falls
// back to the undetermined locale, which gives the Unicode default
// mappings.
func NewSegmenter(locale string) *Segmenter {
	tag := language.Und
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			log.Warnf("unparseable locale %q, using Unicode defaults: %v", locale, err)
		} else {
			tag = parsed
		}
	}
	return &Segmenter{tag: tag}
}

// Tag returns the locale the segmenter was built with.
func (s *Segmenter) Tag() language.Tag {
	return s.tag
}

// Split segments text into an ordered slice of grapheme clusters.
func (s *Segmenter) Split(text string) []string {
	if text == "" {
		return nil
	}
	out := make([]string, 0, len(text))
	state := -1
	var cluster string
	for len(text) > 0 {
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		out = append(out, cluster)
	}
	return out
}

// Lower returns the lowercase form of a cluster or text.
func (s *Segmenter) Lower(text string) string {
	return cases.Lower(s.tag).String(text)
}

// Upper returns the uppercase form of a cluster or text.
func (s *Segmenter) Upper(text string) string {
	return cases.Upper(s.tag).String(text)
}

// Title titlecases whole text (first cluster upper, rest untouched).
// cases.Title would lowercase the remainder, which destroys stored
// camel-case entries, so only the leading cluster is transformed.
func (s *Segmenter) Title(text string) string {
	if text == "" {
		return text
	}
	first, rest, _, _ := uniseg.FirstGraphemeClusterInString(text, -1)
	return cases.Upper(s.tag).String(first) + rest
}

// OppositeCase flips the case of a single cluster: lowercase clusters come
// back uppercase, everything else comes back lowercase.
func (s *Segmenter) OppositeCase(g string) string {
	if g == "" || IsSpecial(g) {
		return g
	}
	if s.isLower(g) {
		return s.Upper(g)
	}
	return s.Lower(g)
}

// FoldEquals reports case-insensitive equality of two clusters.
func (s *Segmenter) FoldEquals(a, b string) bool {
	if a == b {
		return true
	}
	// ASCII fast path, same trick the rune helpers used.
	if len(a) == 1 && len(b) == 1 && a[0] < utf8.RuneSelf && b[0] < utf8.RuneSelf {
		return asciiLower(a[0]) == asciiLower(b[0])
	}
	return s.Lower(a) == s.Lower(b)
}

// IsWhitespace reports whether the cluster is entirely whitespace.
func IsWhitespace(g string) bool {
	if g == "" {
		return false
	}
	for _, r := range g {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func (s *Segmenter) isLower(g string) bool {
	return s.Lower(g) == g && s.Upper(g) != g
}

func asciiLower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// JoinWords renders a word path back to a plain string, dropping the
// reserved tokens. Used when reconstructing display text from trie paths.
func JoinWords(clusters []string) string {
	var sb strings.Builder
	for _, g := range clusters {
		if IsSpecial(g) {
			continue
		}
		sb.WriteString(g)
	}
	return sb.String()
}
