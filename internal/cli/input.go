// Package cli handles cmd line input for debugging normalization in real time.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/charmbracelet/log"
)

// ValidateSeparator splits a line into predicted and reference lists.
const ValidateSeparator = "|"

// InputHandler reads phrases from stdin and prints every stage of their
// normalization. A line "a、b | c" validates the left list against the right.
type InputHandler struct {
	pipeline     *pipeline.Pipeline
	reader       io.Reader
	log          *log.Logger
	maxLength    int
	noFilter     bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(p *pipeline.Pipeline, r io.Reader, l *log.Logger, maxLength int, noFilter bool) *InputHandler {
	return &InputHandler{
		pipeline:  p,
		reader:    r,
		log:       l,
		maxLength: maxLength,
		noFilter:  noFilter,
	}
}

// Start begins the interface loop. It returns nil when the input is closed.
func (h *InputHandler) Start() error {
	h.log.Print("icdnorm CLI")
	h.log.Print("type a diagnosis and press Enter, or 'predicted | reference' to validate (Ctrl+C to exit):")
	reader := bufio.NewReader(h.reader)

	for {
		h.log.Print("> ")
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.log.Debugf("Handled %d lines", h.requestCount)
				return nil
			}
			return err
		}
	}
}

// handleInput routes a single line.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	if len(line) > h.maxLength {
		h.log.Errorf("Input too long: %d bytes (max %d)", len(line), h.maxLength)
		return
	}
	if pred, target, ok := strings.Cut(line, ValidateSeparator); ok {
		h.handleValidate(utils.SplitPhrases(pred), utils.SplitPhrases(target))
		return
	}
	if !h.noFilter && !utils.IsValidPhrase(line) {
		h.log.Warnf("Nothing to normalize in '%s' (filtered out)", line)
		return
	}
	h.handleNormalize(line)
}

func (h *InputHandler) handleNormalize(phrase string) {
	start := time.Now()
	canonical, steps, segments, terms := h.pipeline.Explain(phrase)
	h.log.Debugf("Took [ %v ] for '%s'", time.Since(start), phrase)

	for _, st := range steps {
		h.log.Printf("  %-28s %s -> %s", st.Rule, st.Before, st.After)
	}
	h.log.Printf("canonical: %s", canonical)
	h.log.Printf("segments:  %s", strings.Join(segments, " / "))
	if len(terms) == 0 {
		h.log.Warnf("No dictionary terms found in '%s'", phrase)
		return
	}
	for i, t := range terms {
		h.log.Printf("%2d. %s", i+1, colorize(t))
	}
}

func (h *InputHandler) handleValidate(pred, target []string) {
	v := h.pipeline.Validator()
	res := v.Check(pred, target)
	for _, c := range res.Combined {
		h.log.Printf("  combined %s + %s = %s", c.PartA, c.PartB, c.Combined)
	}
	if len(res.UnmatchedPredicted) > 0 {
		h.log.Printf("  unmatched predicted: %s", strings.Join(res.UnmatchedPredicted, "、"))
	}
	if len(res.UnmatchedTarget) > 0 {
		h.log.Printf("  unmatched reference: %s", strings.Join(res.UnmatchedTarget, "、"))
	}
	h.log.Printf("valid: %v  identical: %v", res.OK, v.Identical(pred, target))
}

func colorize(term string) string {
	return fmt.Sprintf("\033[38;5;75m%s\033[0m", term)
}
