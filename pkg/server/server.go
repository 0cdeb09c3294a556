package server

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/wordcore/pkg/config"
	"github.com/bastiangx/wordcore/pkg/session"
)

// Server handles suggest/spell/train requests over stdin/stdout.
type Server struct {
	session    *session.Session
	config     *config.Config
	configPath string
	// Reuse objects to prevent allocations
	decoder      *msgpack.Decoder
	writeMutex   sync.Mutex
	requestCount int64
}

// NewServer creates a server around an initialized session.
func NewServer(sess *session.Session, cfg *config.Config, configPath string) *Server {
	return &Server{
		session:    sess,
		config:     cfg,
		configPath: configPath,
		decoder:    msgpack.NewDecoder(os.Stdin),
	}
}

// reloadConfig reloads configuration from the TOML file.
func (s *Server) reloadConfig() {
	newConfig, err := config.LoadConfig(s.configPath)
	if err != nil {
		log.Warnf("Failed to reload config, keeping current: %v", err)
		return
	}
	s.config = newConfig
	log.Debugf("Config reloaded from: %s", s.configPath)
}

// Start begins listening for requests. Returns nil on client disconnect.
func (s *Server) Start() error {
	log.Debug("Starting msgpack prediction server")
	for {
		if err := s.processRequest(); err != nil {
			if err == io.EOF {
				log.Debug("Client disconnected")
				return nil
			}
			continue
		}
	}
}

func (s *Server) processRequest() error {
	// Only reload config every 100 requests to reduce filesystem load
	s.requestCount++
	if s.configPath != "" && s.requestCount%100 == 0 {
		s.reloadConfig()
	}

	var request Request
	log.Debug("Waiting for request...")
	if err := s.decoder.Decode(&request); err != nil {
		log.Debugf("Decode error: %v", err)
		return err
	}

	flags := session.RequestFlags(request.Flags)
	if flags.MaxSuggestionCount() == 0 || flags.MaxSuggestionCount() > s.config.Server.MaxLimit {
		flags = session.NewRequestFlags(
			s.config.Server.MaxLimit,
			flags.MaxNgramLevel(),
			flags.InputShiftStateStart(),
			flags.InputShiftStateCurrent(),
			flags.AllowPossiblyOffensive(),
			flags.OverrideHiddenFlag(),
			flags.IsPrivateSession(),
		)
	}

	switch request.Op {
	case "suggest", "":
		return s.handleSuggest(&request, flags)
	case "spell":
		return s.handleSpell(&request, flags)
	case "train":
		return s.handleTrain(&request, flags)
	default:
		return s.sendError(request.ID, fmt.Sprintf("unknown op %q", request.Op), 400)
	}
}

func (s *Server) handleSuggest(request *Request, flags session.RequestFlags) error {
	if len(request.Word) > s.config.Server.MaxWordLen {
		return s.sendError(request.ID, fmt.Sprintf("word too long (max: %d)", s.config.Server.MaxWordLen), 400)
	}
	history := request.History
	if len(history) > s.config.Server.MaxHistory {
		history = history[len(history)-s.config.Server.MaxHistory:]
	}

	start := time.Now()
	cands := s.session.Suggest(request.Word, history, flags)
	elapsed := time.Since(start)

	suggestions := make([]Suggestion, len(cands))
	for i, c := range cands {
		suggestions[i] = Suggestion{
			Text:       c.Text,
			Secondary:  c.SecondaryText,
			Confidence: c.Confidence,
			AutoCommit: c.IsEligibleForAutoCommit,
		}
	}
	return s.sendResponse(&SuggestResponse{
		ID:          request.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleSpell(request *Request, flags session.RequestFlags) error {
	start := time.Now()
	result := s.session.Spell(request.Word, request.History, flags)
	elapsed := time.Since(start)

	return s.sendResponse(&SpellResponse{
		ID:          request.ID,
		Attributes:  uint32(result.Attributes),
		Suggestions: result.Suggestions,
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleTrain(request *Request, flags session.RequestFlags) error {
	if flags.IsPrivateSession() || !s.config.Server.AllowTrain {
		return s.sendResponse(&StatusResponse{ID: request.ID, Status: "skipped"})
	}
	words := request.History
	if request.Word != "" {
		words = append(words, request.Word)
	}
	if err := s.session.Train(words, flags.MaxNgramLevel()); err != nil {
		return s.sendResponse(&StatusResponse{ID: request.ID, Status: "error", Error: err.Error()})
	}
	return s.sendResponse(&StatusResponse{ID: request.ID, Status: "ok"})
}

// sendResponse encodes and sends a msgpack response to stdout atomically.
func (s *Server) sendResponse(response any) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	// Encode to buffer first to ensure atomic write
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	os.Stdout.Sync()
	return nil
}

func (s *Server) sendError(id string, message string, code int) error {
	return s.sendResponse(&RequestError{ID: id, Error: message, Code: code})
}
