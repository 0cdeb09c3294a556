package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/internal/graphemes"
	"github.com/bastiangx/wordcore/pkg/trie"
)

// terminationSpecials stops a word walk from descending into n-gram
// chains or sentence padding.
var terminationSpecials = map[string]struct{}{
	graphemes.NgramSep: {},
	graphemes.SOS:      {},
}

// Emit serializes d to w: preamble, [meta], then [words] (assigning
// sequential internal ids), [ngrams] (translated to id lists) and
// [shortcuts]. Pending global penalties are folded into the emitted
// scores and reset first, so a freshly emitted file always reflects
// settled frequencies.
func Emit(w io.Writer, d *Dictionary) error {
	d.RecalculateAll()

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "#~schema:%s\n", SchemaURL)
	fmt.Fprintf(bw, "#~encoding:%s\n", Encoding)
	emitMeta(bw, &d.Meta)

	idByWord := make(map[string]int)
	emitWords(bw, d, idByWord)
	emitNgrams(bw, d, idByWord)
	emitShortcuts(bw, d)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	return nil
}

func emitMeta(bw *bufio.Writer, meta *Meta) {
	bw.WriteString(sectionMeta + "\n")
	if meta.Name != "" {
		fmt.Fprintf(bw, "name=%s\n", strconv.Quote(meta.Name))
	}
	if meta.DisplayName != "" {
		fmt.Fprintf(bw, "display_name=%s\n", strconv.Quote(meta.DisplayName))
	}
	if len(meta.Locales) > 0 {
		fmt.Fprintf(bw, "locales=%s\n", quoteList(meta.Locales))
	}
	if meta.GeneratedBy != "" {
		fmt.Fprintf(bw, "generated_by=%s\n", strconv.Quote(meta.GeneratedBy))
	}
	if len(meta.Authors) > 0 {
		fmt.Fprintf(bw, "authors=%s\n", quoteList(meta.Authors))
	}
	if meta.License != "" {
		fmt.Fprintf(bw, "license=%s\n", strconv.Quote(meta.License))
	}
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func emitWords(bw *bufio.Writer, d *Dictionary, idByWord map[string]int) {
	bw.WriteString(sectionWords + "\n")
	nextID := 1
	d.root.ForEach(terminationSpecials, func(path []string, node *trie.Node) {
		entry := node.ValueOrNull(d.ID)
		if entry == nil || entry.Word == nil {
			return
		}
		word := strings.Join(path, "")
		entry.Word.InternalID = nextID
		idByWord[word] = nextID
		nextID++
		flags := flagString(entry.Word.IsPossiblyOffensive, entry.Word.IsHiddenByUser)
		if flags == "" {
			fmt.Fprintf(bw, "%s\t%d\n", word, entry.Word.Score)
		} else {
			fmt.Fprintf(bw, "%s\t%d\t%s\n", word, entry.Word.Score, flags)
		}
	})
}

func emitNgrams(bw *bufio.Writer, d *Dictionary, idByWord map[string]int) {
	type ngramRecord struct {
		ids   string
		score int
	}
	var records []ngramRecord

	d.root.ForEach(nil, func(path []string, node *trie.Node) {
		entry := node.ValueOrNull(d.ID)
		if entry == nil || entry.Ngram == nil {
			return
		}
		words := splitNgramPath(path)
		if len(words) < 2 {
			return
		}
		ids := make([]string, 0, len(words))
		allNegative := true
		for _, word := range words {
			if len(word) == 1 && graphemes.IsSpecial(word[0]) {
				ids = append(ids, strconv.Itoa(-int(word[0][0])))
				continue
			}
			allNegative = false
			id, ok := idByWord[strings.Join(word, "")]
			if !ok {
				// an n-gram over a word with no word entry has no id to
				// reference; it cannot round-trip and is skipped
				log.Warnf("skipping ngram over unknown word %q", strings.Join(word, ""))
				return
			}
			ids = append(ids, strconv.Itoa(id))
		}
		if allNegative {
			return
		}
		records = append(records, ngramRecord{ids: strings.Join(ids, ","), score: entry.Ngram.Score})
	})

	if len(records) == 0 {
		return
	}
	bw.WriteString(sectionNgrams + "\n")
	for _, rec := range records {
		fmt.Fprintf(bw, "%s\t%d\n", rec.ids, rec.score)
	}
}

func emitShortcuts(bw *bufio.Writer, d *Dictionary) {
	type shortcutRecord struct {
		trigger string
		props   trie.ShortcutProps
	}
	var records []shortcutRecord
	d.visitShortcuts(func(trigger string, node *trie.Node) {
		entry := node.ValueOrNull(d.ID)
		if entry == nil || entry.Shortcut == nil {
			return
		}
		records = append(records, shortcutRecord{trigger: trigger, props: *entry.Shortcut})
	})
	if len(records) == 0 {
		return
	}
	bw.WriteString(sectionShortcuts + "\n")
	for _, rec := range records {
		flags := flagString(rec.props.IsPossiblyOffensive, rec.props.IsHiddenByUser)
		if flags == "" {
			fmt.Fprintf(bw, "%s\t%s\t%d\n", rec.trigger, rec.props.Expansion, rec.props.Score)
		} else {
			fmt.Fprintf(bw, "%s\t%s\t%d\t%s\n", rec.trigger, rec.props.Expansion, rec.props.Score, flags)
		}
	}
}

func flagString(offensive, hidden bool) string {
	var sb strings.Builder
	if offensive {
		sb.WriteByte(flagPossiblyOffensive)
	}
	if hidden {
		sb.WriteByte(flagHiddenByUser)
	}
	return sb.String()
}

// splitNgramPath cuts a trie path at separators into per-word grapheme
// slices.
func splitNgramPath(path []string) [][]string {
	var words [][]string
	current := []string{}
	for _, g := range path {
		if g == graphemes.NgramSep {
			words = append(words, current)
			current = []string{}
			continue
		}
		current = append(current, g)
	}
	words = append(words, current)
	return words
}

// SaveFile emits d to the file at path, replacing it atomically enough
// for a single writer: written to a temp file first, then renamed.
func SaveFile(path string, d *Dictionary) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		log.Errorf("failed to create dictionary file %s: %v", tmp, err)
		return fmt.Errorf("creating dictionary file: %w", err)
	}
	if err := Emit(file, d); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing dictionary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing dictionary file: %w", err)
	}
	log.Debugf("saved dictionary to %s", path)
	return nil
}
