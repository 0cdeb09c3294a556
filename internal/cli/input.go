// Package cli handles cmd line input for DBG and testing the prediction
// engine in real-time.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/internal/logger"
	"github.com/bastiangx/wordcore/pkg/session"
)

// InputHandler processes sentences from stdin and prints ranked
// candidates. The last whitespace-separated token of a line is treated
// as the current word, everything before it as history.
type InputHandler struct {
	session      *session.Session
	out          *log.Logger
	suggestLimit int
	ngramLevel   int
	spellMode    bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters.
func NewInputHandler(sess *session.Session, limit, ngramLevel int, spellMode bool) *InputHandler {
	return &InputHandler{
		session:      sess,
		out:          logger.Default(""),
		suggestLimit: limit,
		ngramLevel:   ngramLevel,
		spellMode:    spellMode,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin, and passes
// the trimmed input for processing. Loop terminates if an error occurs
// while reading from stdin.
func (h *InputHandler) Start() error {
	log.Print("wordcore CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a sentence and press Enter to see the candidates (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput splits one line into history + current word, queries the
// session and prints the results.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++

	tokens := strings.Fields(line)
	current := tokens[len(tokens)-1]
	history := tokens[:len(tokens)-1]

	flags := session.NewRequestFlags(h.suggestLimit, h.ngramLevel,
		session.ShiftUnshifted, session.ShiftUnshifted, false, false, false)

	start := time.Now()

	if h.spellMode {
		result := h.session.Spell(current, history, flags)
		elapsed := time.Since(start)
		log.Debugf("Took [ %v ] for word '%s'", elapsed, current)
		switch {
		case result.IsValid():
			h.out.Printf("'%s' is in the dictionary", current)
		case result.Attributes == 0:
			h.out.Printf("no verdict for '%s'", current)
		default:
			h.out.Printf("'%s' looks like a typo, %d corrections:", current, len(result.Suggestions))
			for i, text := range result.Suggestions {
				h.out.Printf("%2d. %s", i+1, text)
			}
		}
		return
	}

	candidates := h.session.Suggest(current, history, flags)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for word '%s'", elapsed, current)

	if len(candidates) == 0 {
		log.Warnf("No candidates found for '%s'", current)
		return
	}

	h.out.Printf("Found %d candidates for '%s':", len(candidates), current)
	for i, c := range candidates {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", c.Text)
		h.out.Printf("%2d. %-40s (conf: %6.4f)", i+1, clWord, c.Confidence)
	}
}
