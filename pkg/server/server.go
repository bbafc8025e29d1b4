package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/icdnorm/internal/logger"
	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// maxPhraseLen bounds a phrase in bytes.
const maxPhraseLen = 1024

// Server handles the IPC for normalization and validation.
type Server struct {
	pipeline *pipeline.Pipeline
	info     Info
	reader   io.Reader
	writer   *bufio.Writer
	log      *log.Logger
	requests int
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(p *pipeline.Pipeline, info Info) *Server {
	return NewServerWithIO(p, info, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(p *pipeline.Pipeline, info Info, r io.Reader, w io.Writer) *Server {
	return &Server{
		pipeline: p,
		info:     info,
		reader:   r,
		writer:   bufio.NewWriter(w),
		log:      logger.New("ipc"),
	}
}

// Start reads requests until the input is closed. A stream that can no longer
// be decoded ends the loop with an error, since message boundaries are lost.
func (s *Server) Start() error {
	s.log.Debug("Starting server")
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		raw, err := dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			s.sendError("", "Malformed msgpack stream", 400)
			return fmt.Errorf("decode request: %w", err)
		}
		s.requests++
		s.handle(raw)
	}
}

// handle routes one message.
func (s *Server) handle(raw msgpack.RawMessage) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.log.Debugf("Unroutable message: %v", err)
		s.sendError("", "Request must be a map", 400)
		return
	}

	action := env.Action
	if action == "" {
		action = ActionNormalize
		if env.Target != nil {
			action = ActionValidate
		}
	}

	switch action {
	case ActionNormalize:
		var req NormalizeRequest
		if s.decode(raw, env.ID, &req) {
			s.handleNormalize(req)
		}
	case ActionValidate:
		var req ValidateRequest
		if s.decode(raw, env.ID, &req) {
			s.handleValidate(req)
		}
	case ActionExplain:
		var req ExplainRequest
		if s.decode(raw, env.ID, &req) {
			s.handleExplain(req)
		}
	case ActionInfo:
		s.send(InfoResponse{ID: env.ID, Status: "ok", Info: s.info, Requests: s.requests})
	default:
		s.sendError(env.ID, fmt.Sprintf("Unknown action: %s", action), 400)
	}
}

func (s *Server) decode(raw msgpack.RawMessage, id string, v any) bool {
	if err := msgpack.Unmarshal(raw, v); err != nil {
		s.log.Debugf("Bad request %s: %v", id, err)
		s.sendError(id, "Invalid request fields", 400)
		return false
	}
	return true
}

func (s *Server) handleNormalize(req NormalizeRequest) {
	if len(req.Phrase) > maxPhraseLen {
		s.sendError(req.ID, fmt.Sprintf("Phrase exceeds maximum length of %d bytes", maxPhraseLen), 413)
		return
	}
	start := time.Now()
	slots := record.SlotsOf(s.pipeline.Normalize(req.Phrase))
	s.send(NormalizeResponse{
		ID:        req.ID,
		Terms:     slots[:],
		Dirty:     record.IsDirty(req.Phrase),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleValidate(req ValidateRequest) {
	v := s.pipeline.Validator()
	res := v.Check(req.Predicted, req.Target)
	s.send(ValidateResponse{
		ID:                 req.ID,
		OK:                 res.OK,
		Identical:          v.Identical(req.Predicted, req.Target),
		UnmatchedPredicted: nonNil(res.UnmatchedPredicted),
		UnmatchedTarget:    nonNil(res.UnmatchedTarget),
	})
}

func (s *Server) handleExplain(req ExplainRequest) {
	if len(req.Phrase) > maxPhraseLen {
		s.sendError(req.ID, fmt.Sprintf("Phrase exceeds maximum length of %d bytes", maxPhraseLen), 413)
		return
	}
	canonical, steps, segments, terms := s.pipeline.Explain(req.Phrase)
	out := ExplainResponse{ID: req.ID, Canonical: canonical, Segments: segments, Terms: terms, Steps: []ExplainStep{}}
	for _, st := range steps {
		out.Steps = append(out.Steps, ExplainStep{Rule: st.Rule, Before: st.Before, After: st.After})
	}
	s.send(out)
}

// send writes one response and flushes so the client sees it immediately.
func (s *Server) send(v any) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		s.log.Errorf("Writing response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Flushing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
