/*
Package canon rewrites a raw diagnosis phrase into the surface form the
dictionary expects.

The rewrite is a fixed pipeline over an ordered RuleSet:

 1. NFKC normalization
 2. pattern substitutions, in table order (separators, fillers, qualifiers,
    spelling, phrasing), repeated until a pass changes nothing
 3. whole-phrase overrides
 4. the traffic-incident rewrite, which replaces the entire phrase with a coded label

Later rules see the output of earlier ones, so table order matters. A
deletion can join two halves of a pattern that an earlier rule already
passed over ("合 併發症", "合及併發症"); the repeated pass catches those, so
applying Canonicalize twice yields the same text as applying it once.
*/
package canon

import (
	"fmt"
	"strings"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/dlclark/regexp2"
)

// compiledRule pairs a Rule with its compiled pattern.
type compiledRule struct {
	Rule
	re *regexp2.Regexp
}

// Apply runs the substitution on s. A regexp2 runtime error leaves s unchanged.
func (r *compiledRule) Apply(s string) string {
	out, err := r.re.Replace(s, r.Replace, -1, -1)
	if err != nil {
		log.Errorf("Rule %s failed on %q: %v", r.Name, s, err)
		return s
	}
	return out
}

// Canonicalizer applies a compiled RuleSet. It is immutable and safe for concurrent use.
type Canonicalizer struct {
	rules     []*compiledRule
	overrides map[string]string
	traffic   []TrafficRule
}

// New compiles rs. A pattern that fails to compile is reported with its rule name.
func New(rs RuleSet) (*Canonicalizer, error) {
	c := &Canonicalizer{
		rules:     make([]*compiledRule, 0, len(rs.Rules)),
		overrides: make(map[string]string, len(rs.Overrides)),
		traffic:   rs.Traffic,
	}
	for _, r := range rs.Rules {
		re, err := regexp2.Compile(r.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.Name, err)
		}
		c.rules = append(c.rules, &compiledRule{Rule: r, re: re})
	}
	for _, o := range rs.Overrides {
		c.overrides[o.From] = o.To
	}
	return c, nil
}

// Default returns a Canonicalizer over the built-in tables.
func Default() *Canonicalizer {
	c, err := New(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return c
}

// maxPasses bounds the substitution stage. Tables whose rules feed each
// other in a cycle stop here instead of looping.
const maxPasses = 8

// Canonicalize rewrites raw into canonical text. It is pure and deterministic.
func (c *Canonicalizer) Canonicalize(raw string) string {
	text := c.substitute(utils.NormalizeNFKC(raw), nil)
	if to, ok := c.overrides[text]; ok {
		text = to
	}
	return c.rewriteTraffic(text)
}

// Step records one rule that changed the text.
type Step struct {
	Rule   string
	Before string
	After  string
}

// Trace canonicalizes raw and reports every rule that changed the text.
func (c *Canonicalizer) Trace(raw string) (string, []Step) {
	var steps []Step
	record := func(name, before, after string) {
		if before != after {
			steps = append(steps, Step{Rule: name, Before: before, After: after})
		}
	}

	text := utils.NormalizeNFKC(raw)
	record("nfkc", raw, text)
	text = c.substitute(text, record)
	if to, ok := c.overrides[text]; ok {
		record("override", text, to)
		text = to
	}
	next := c.rewriteTraffic(text)
	record("traffic", text, next)
	return next, steps
}

// substitute runs the rule table over text until a full pass leaves it
// unchanged. step, when set, sees every rule application.
func (c *Canonicalizer) substitute(text string, step func(name, before, after string)) string {
	for pass := 0; pass < maxPasses; pass++ {
		start := text
		for _, r := range c.rules {
			next := r.Apply(text)
			if step != nil {
				step(r.Name, text, next)
			}
			text = next
		}
		if text == start {
			return text
		}
	}
	log.Warnf("Rules did not settle after %d passes: %q", maxPasses, text)
	return text
}

// rewriteTraffic returns the coded label for a traffic-incident phrase, or text unchanged.
func (c *Canonicalizer) rewriteTraffic(text string) string {
	for _, tr := range c.traffic {
		if !containsAny(text, tr.Actor, 1) {
			continue
		}
		for _, v := range tr.Vehicles {
			if containsAny(text, v.Any, v.MinCount) {
				return v.Label
			}
		}
		return text
	}
	return text
}

// containsAny reports whether any keyword occurs at least atLeast times in text.
func containsAny(text string, keywords []string, atLeast int) bool {
	if atLeast < 1 {
		atLeast = 1
	}
	for _, k := range keywords {
		if k != "" && strings.Count(text, k) >= atLeast {
			return true
		}
	}
	return false
}

// Len returns the number of substitution rules.
func (c *Canonicalizer) Len() int {
	return len(c.rules)
}
