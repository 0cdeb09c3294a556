package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/internal/graphemes"
)

// The single supported file grammar. Loading fails on anything else.
const (
	SchemaURL = "https://schemas.wordcore.dev/dictionary/v1"
	Encoding  = "utf-8"
)

const (
	sectionMeta      = "[meta]"
	sectionWords     = "[words]"
	sectionNgrams    = "[ngrams]"
	sectionShortcuts = "[shortcuts]"
)

// flag characters in [words] / [shortcuts] records
const (
	flagPossiblyOffensive = 'p'
	flagHiddenByUser      = 'h'
)

// Parse reads a dictionary file from r into d. The reader is consumed
// line by line; CRLF endings are tolerated. Content errors carry the
// 1-based line number.
func Parse(r io.Reader, d *Dictionary, seg *graphemes.Segmenter) error {
	if d.ReadOnly {
		return ErrMutationOnReadOnly
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lineNum    int
		schema     string
		encoding   string
		inPreamble = true
		section    string
		seen       = map[string]bool{}
		wordPaths  [][]string
		ngrams     []pendingNgram
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			continue
		}

		if inPreamble {
			if !strings.HasPrefix(line, "[") {
				if key, value, ok := parseDirective(line); ok {
					switch key {
					case "schema":
						schema = value
					case "encoding":
						encoding = value
					}
				}
				continue
			}
			// first section header ends the preamble
			if schema != SchemaURL {
				return fmt.Errorf("%w: %q", ErrSchemaUnsupported, schema)
			}
			if encoding != Encoding {
				return fmt.Errorf("%w: %q", ErrEncodingUnsupported, encoding)
			}
			inPreamble = false
		}

		if strings.HasPrefix(line, "[") {
			switch line {
			case sectionMeta, sectionWords, sectionNgrams, sectionShortcuts:
				if seen[line] {
					return malformed(lineNum, "duplicate section %s", line)
				}
				seen[line] = true
				section = line
			default:
				return malformed(lineNum, "unknown section %s", line)
			}
			continue
		}

		var err error
		switch section {
		case sectionMeta:
			err = parseMetaLine(line, lineNum, &d.Meta)
		case sectionWords:
			wordPaths, err = parseWordLine(line, lineNum, d, seg, wordPaths)
		case sectionNgrams:
			ngrams, err = scanNgramLine(line, lineNum, ngrams)
		case sectionShortcuts:
			err = parseShortcutLine(line, lineNum, d, seg)
		default:
			return malformed(lineNum, "content before first section")
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading dictionary: %w", err)
	}
	if inPreamble {
		// file ended before any section header; preamble checks still apply
		if schema != SchemaURL {
			return fmt.Errorf("%w: %q", ErrSchemaUnsupported, schema)
		}
		if encoding != Encoding {
			return fmt.Errorf("%w: %q", ErrEncodingUnsupported, encoding)
		}
	}
	// id resolution waits until the whole file is scanned: sections may
	// appear in any order, so [ngrams] can legally precede [words]
	return resolveNgrams(d, ngrams, wordPaths)
}

// parseDirective splits a "#~key:value" preamble line.
func parseDirective(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, "#~") {
		return "", "", false
	}
	rest := line[2:]
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+1:]), true
}

func parseMetaLine(line string, lineNum int, meta *Meta) error {
	if strings.HasPrefix(line, "#") {
		return nil
	}
	idx := strings.Index(line, "=")
	if idx < 0 {
		return malformed(lineNum, "meta line without '='")
	}
	key := strings.TrimSpace(line[:idx])
	raw := strings.TrimSpace(line[idx+1:])

	switch key {
	case "name", "display_name", "generated_by", "license":
		value, err := parseQuoted(raw)
		if err != nil {
			return malformed(lineNum, "meta %s: %v", key, err)
		}
		switch key {
		case "name":
			meta.Name = value
		case "display_name":
			meta.DisplayName = value
		case "generated_by":
			meta.GeneratedBy = value
		case "license":
			meta.License = value
		}
	case "locales", "authors":
		values, err := parseQuotedList(raw)
		if err != nil {
			return malformed(lineNum, "meta %s: %v", key, err)
		}
		if key == "locales" {
			meta.Locales = values
		} else {
			meta.Authors = values
		}
	default:
		// unknown meta keys are silently ignored
	}
	return nil
}

func parseQuoted(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", raw)
	}
	value, err := strconv.Unquote(raw)
	if err != nil {
		return "", fmt.Errorf("bad quoting in %q", raw)
	}
	return value, nil
}

func parseQuotedList(raw string) ([]string, error) {
	if len(raw) < 2 || raw[0] != '[' || raw[len(raw)-1] != ']' {
		return nil, fmt.Errorf("expected bracketed list, got %q", raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return nil, nil
	}
	var values []string
	for _, part := range strings.Split(inner, ",") {
		value, err := parseQuoted(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func parseScore(field string, lineNum int) (int, error) {
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, malformed(lineNum, "bad numeric field %q", field)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, malformed(lineNum, "score %d outside non-negative 32-bit range", n)
	}
	return int(n), nil
}

func parseFlags(field string, lineNum int) (offensive, hidden bool, err error) {
	for _, c := range field {
		switch c {
		case flagPossiblyOffensive:
			offensive = true
		case flagHiddenByUser:
			hidden = true
		default:
			return false, false, malformed(lineNum, "unknown flag %q", string(c))
		}
	}
	return offensive, hidden, nil
}

func parseWordLine(line string, lineNum int, d *Dictionary, seg *graphemes.Segmenter, wordPaths [][]string) ([][]string, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 || len(fields) > 3 {
		return nil, malformed(lineNum, "word record needs 2 or 3 fields, got %d", len(fields))
	}
	word := fields[0]
	if word == "" {
		return nil, malformed(lineNum, "empty word")
	}
	score, err := parseScore(fields[1], lineNum)
	if err != nil {
		return nil, err
	}
	var offensive, hidden bool
	if len(fields) == 3 {
		offensive, hidden, err = parseFlags(fields[2], lineNum)
		if err != nil {
			return nil, err
		}
	}
	path := seg.Split(word)
	if err := d.InsertWord(path, score, offensive, hidden); err != nil {
		return nil, err
	}
	// the 1-based record index is the word's internal id for this file
	entry := d.root.FindOrNull(path).ValueOrNull(d.ID)
	entry.Word.InternalID = len(wordPaths) + 1
	return append(wordPaths, path), nil
}

// pendingNgram is a scanned [ngrams] record whose positive ids still
// await resolution against the complete [words] table.
type pendingNgram struct {
	line  int
	ids   []int
	score int
}

// scanNgramLine validates an [ngrams] record structurally and queues it;
// word-id resolution happens once the whole file is read.
func scanNgramLine(line string, lineNum int, ngrams []pendingNgram) ([]pendingNgram, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 2 {
		return nil, malformed(lineNum, "ngram record needs 2 fields, got %d", len(fields))
	}
	idFields := strings.Split(fields[0], ",")
	if len(idFields) < 2 {
		return nil, malformed(lineNum, "ngram needs at least 2 ids")
	}
	score, err := parseScore(fields[1], lineNum)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(idFields))
	for _, idField := range idFields {
		id, err := strconv.Atoi(strings.TrimSpace(idField))
		if err != nil || id == 0 {
			return nil, malformed(lineNum, "bad ngram id %q", idField)
		}
		if id < 0 && -id >= 0x20 {
			return nil, malformed(lineNum, "special token id %d out of range", id)
		}
		ids = append(ids, id)
	}
	return append(ngrams, pendingNgram{line: lineNum, ids: ids, score: score}), nil
}

// resolveNgrams translates queued id lists into grapheme paths and
// inserts them.
func resolveNgrams(d *Dictionary, ngrams []pendingNgram, wordPaths [][]string) error {
	for _, ng := range ngrams {
		words := make([][]string, 0, len(ng.ids))
		for _, id := range ng.ids {
			if id > 0 {
				if id > len(wordPaths) {
					return fmt.Errorf("line %d: %w (id %d)", ng.line, ErrOutOfRange, id)
				}
				words = append(words, wordPaths[id-1])
				continue
			}
			words = append(words, []string{string(byte(-id))})
		}
		if err := d.InsertNgram(words, ng.score); err != nil {
			return err
		}
	}
	return nil
}

func parseShortcutLine(line string, lineNum int, d *Dictionary, seg *graphemes.Segmenter) error {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 || len(fields) > 4 {
		return malformed(lineNum, "shortcut record needs 3 or 4 fields, got %d", len(fields))
	}
	trigger, expansion := fields[0], fields[1]
	if trigger == "" || expansion == "" {
		return malformed(lineNum, "empty shortcut trigger or expansion")
	}
	score, err := parseScore(fields[2], lineNum)
	if err != nil {
		return err
	}
	var offensive, hidden bool
	if len(fields) == 4 {
		offensive, hidden, err = parseFlags(fields[3], lineNum)
		if err != nil {
			return err
		}
	}
	return d.InsertShortcut(seg.Split(trigger), expansion, score, offensive, hidden)
}

// LoadFile parses the dictionary file at path into d.
func LoadFile(path string, d *Dictionary, seg *graphemes.Segmenter) error {
	file, err := os.Open(path)
	if err != nil {
		log.Errorf("failed to open dictionary file %s: %v", path, err)
		return fmt.Errorf("opening dictionary file: %w", err)
	}
	defer file.Close()
	if err := Parse(bufio.NewReader(file), d, seg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	log.Debugf("loaded dictionary %s: %d words, %d shortcuts", path, d.words.VocabSize, d.shortcuts.VocabSize)
	return nil
}
