/*
Package validate decides whether a predicted term list agrees with a reference annotation.

Agreement is fuzzy and bidirectional: every predicted entry must have an
equivalent entry in the reference and vice versa. Two terms are equivalent
when they match case-insensitively, share a synonym group, or differ only by a
neutral marker such as 病史 or 末期. Before coverage is checked, combination
triples let a compound diagnosis on one side stand for its two parts on the
other.

Validation never fails with an error. Malformed input is simply not valid.
*/
package validate

import (
	"strings"

	"github.com/bastiangx/icdnorm/pkg/record"
)

// Synonyms resolves a term to its synonym group.
type Synonyms interface {
	SynonymGroupOf(term string) (int, bool)
}

// Validator compares predicted and reference term lists. It is immutable and
// safe for concurrent use.
type Validator struct {
	syn     Synonyms
	combos  []Combination
	markers Markers
}

// Option configures a Validator.
type Option func(*Validator)

// WithTable replaces the combination and marker data.
func WithTable(t Table) Option {
	return func(v *Validator) {
		v.combos = t.Combinations
		v.markers = t.Markers
	}
}

// New creates a Validator. syn may be nil, which disables synonym equivalence.
func New(syn Synonyms, opts ...Option) *Validator {
	t := DefaultTable()
	v := &Validator{syn: syn, combos: t.Combinations, markers: t.Markers}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Result is the outcome of Check with diagnostics.
type Result struct {
	OK                 bool
	Combined           []Combination
	UnmatchedPredicted []string
	UnmatchedTarget    []string
}

// Status is the per-category outcome of ValidateAll.
type Status struct {
	Valid     bool
	Identical bool
}

// Validate reports whether predicted and target agree.
func (v *Validator) Validate(predicted, target []string) bool {
	return v.Check(predicted, target).OK
}

// Check is Validate with diagnostics. Lists with more than SlotWidth entries
// or with exactly one side empty never pass; two empty sides agree.
func (v *Validator) Check(predicted, target []string) Result {
	p, t := nonEmpty(predicted), nonEmpty(target)
	if len(p) > record.SlotWidth || len(t) > record.SlotWidth {
		return Result{UnmatchedPredicted: p, UnmatchedTarget: t}
	}
	if len(p) == 0 || len(t) == 0 {
		return Result{OK: len(p) == len(t), UnmatchedPredicted: p, UnmatchedTarget: t}
	}

	usedP := make([]bool, len(p))
	usedT := make([]bool, len(t))
	res := Result{Combined: v.combine(p, usedP, t, usedT)}

	res.UnmatchedPredicted = v.uncovered(p, usedP, t, usedT)
	res.UnmatchedTarget = v.uncovered(t, usedT, p, usedP)
	res.OK = len(res.UnmatchedPredicted) == 0 && len(res.UnmatchedTarget) == 0
	return res
}

// combine applies combination triples until none fires. Each physical entry
// is consumed at most once.
func (v *Validator) combine(p []string, usedP []bool, t []string, usedT []bool) []Combination {
	var applied []Combination
	for changed := true; changed; {
		changed = false
		for _, c := range v.combos {
			if v.consume(c, p, usedP, t, usedT) || v.consume(c, t, usedT, p, usedP) {
				applied = append(applied, c)
				changed = true
			}
		}
	}
	return applied
}

// consume fires c when both parts are free on the parts side and the
// combined form is free on the other side.
func (v *Validator) consume(c Combination, parts []string, usedParts []bool, other []string, usedOther []bool) bool {
	ia := v.find(c.PartA, parts, usedParts, -1)
	if ia < 0 {
		return false
	}
	ib := v.find(c.PartB, parts, usedParts, ia)
	if ib < 0 {
		return false
	}
	ic := v.find(c.Combined, other, usedOther, -1)
	if ic < 0 {
		return false
	}
	usedParts[ia], usedParts[ib], usedOther[ic] = true, true, true
	return true
}

func (v *Validator) find(term string, side []string, used []bool, skip int) int {
	for i, s := range side {
		if i != skip && !used[i] && v.Equivalent(s, term) {
			return i
		}
	}
	return -1
}

// uncovered lists free entries of side with no free equivalent in other.
func (v *Validator) uncovered(side []string, usedSide []bool, other []string, usedOther []bool) []string {
	var out []string
	for i, a := range side {
		if usedSide[i] {
			continue
		}
		if v.find(a, other, usedOther, -1) < 0 {
			out = append(out, a)
		}
	}
	return out
}

// Equivalent reports whether a and b denote the same diagnosis.
func (v *Validator) Equivalent(a, b string) bool {
	if v.same(a, b) {
		return true
	}
	for _, m := range v.markers.Prefixes {
		if x, ok := strings.CutPrefix(a, m); ok && v.same(x, b) {
			return true
		}
		if x, ok := strings.CutPrefix(b, m); ok && v.same(a, x) {
			return true
		}
	}
	for _, m := range v.markers.Suffixes {
		if x, ok := strings.CutSuffix(a, m); ok && v.same(x, b) {
			return true
		}
		if x, ok := strings.CutSuffix(b, m); ok && v.same(a, x) {
			return true
		}
	}
	return false
}

// same is equivalence without markers: case-insensitive match or shared synonym group.
func (v *Validator) same(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	if v.syn == nil {
		return false
	}
	ga, okA := v.syn.SynonymGroupOf(a)
	gb, okB := v.syn.SynonymGroupOf(b)
	return okA && okB && ga == gb
}

// Identical reports strict set equality of the non-empty entries.
func (v *Validator) Identical(predicted, target []string) bool {
	ps, ts := toSet(predicted), toSet(target)
	if len(ps) != len(ts) {
		return false
	}
	for k := range ps {
		if _, ok := ts[k]; !ok {
			return false
		}
	}
	return true
}

// ValidateAll validates every category present in either map.
func (v *Validator) ValidateAll(predicted, target map[record.Category][]string) map[record.Category]Status {
	out := make(map[record.Category]Status, len(record.Categories))
	for _, c := range record.Categories {
		p, okP := predicted[c]
		t, okT := target[c]
		if !okP && !okT {
			continue
		}
		out[c] = Status{Valid: v.Validate(p, t), Identical: v.Identical(p, t)}
	}
	return out
}

func nonEmpty(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, s := range terms {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, s := range terms {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
