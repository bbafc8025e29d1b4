/*
Package pipeline wires the canonicalizer, segmenter, refiner and validator
into the per-record flow, and runs that flow over many files in parallel.

	raw phrase -> canon -> segment -> refine -> slots
	slots + reference -> validate -> Correct / Identical

A Pipeline holds only immutable parts, so one value is shared by every worker.
*/
package pipeline

import (
	"github.com/bastiangx/icdnorm/pkg/canon"
	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/bastiangx/icdnorm/pkg/refine"
	"github.com/bastiangx/icdnorm/pkg/segment"
	"github.com/bastiangx/icdnorm/pkg/validate"
)

// Pipeline processes records. It is safe for concurrent use.
type Pipeline struct {
	canon      *canon.Canonicalizer
	seg        *segment.Segmenter
	refiner    *refine.Refiner
	validator  *validate.Validator
	cache      *segment.Cache
	chainSplit bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache memoizes phrase normalization.
func WithCache(c *segment.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithChainSplit enables moving causes joined by 導致/引發 into the next category.
func WithChainSplit(on bool) Option {
	return func(p *Pipeline) { p.chainSplit = on }
}

// New assembles a Pipeline from its parts.
func New(c *canon.Canonicalizer, s *segment.Segmenter, r *refine.Refiner, v *validate.Validator, opts ...Option) *Pipeline {
	p := &Pipeline{canon: c, seg: s, refiner: r, validator: v}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validator exposes the validator for callers that compare lists directly.
func (p *Pipeline) Validator() *validate.Validator {
	return p.validator
}

// Normalize turns one raw phrase into its cleaned term list, without padding.
func (p *Pipeline) Normalize(raw string) []string {
	if raw == "" {
		return []string{}
	}
	if terms, ok := p.cache.Get(raw); ok {
		return terms
	}
	terms := p.refiner.Clean(p.seg.Segment(p.canon.Canonicalize(raw)))
	p.cache.Add(raw, terms)
	return terms
}

// Explain returns the intermediate forms of Normalize for debugging.
func (p *Pipeline) Explain(raw string) (canonical string, steps []canon.Step, segments, terms []string) {
	canonical, steps = p.canon.Trace(raw)
	segments = p.seg.Segment(canonical)
	terms = p.refiner.Clean(segments)
	return canonical, steps, segments, terms
}

// NormalizeSlots normalizes every slot of a category and refines the
// concatenated terms as one list, so that a term repeated in two slots or
// covered by a term from another slot does not take a slot of its own.
// Overflow past four terms drops the latest.
func (p *Pipeline) NormalizeSlots(inputs record.Slots) record.Slots {
	var terms []string
	for _, phrase := range inputs {
		terms = append(terms, p.Normalize(phrase)...)
	}
	return record.SlotsOf(p.refiner.Refine(terms))
}

// Process runs the full flow on a row. It never fails: a phrase with no
// matches simply yields empty slots, and dirty input is only flagged.
func (p *Pipeline) Process(row record.Row) *record.Record {
	rec := record.NewRecord(row)
	inputs := row.Inputs
	if p.chainSplit {
		inputs = ShiftChain(inputs)
	}
	for _, c := range record.Categories {
		res := p.NormalizeSlots(inputs[c])
		target := rec.Targets[c]
		rec.Results[c] = res
		rec.Correct[c] = p.validator.Validate(res[:], target[:])
		rec.Identical[c] = p.validator.Identical(res[:], target[:])
	}
	return rec
}
