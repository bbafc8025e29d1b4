package main

import (
	"fmt"

	"github.com/bastiangx/icdnorm/pkg/canon"
	"github.com/bastiangx/icdnorm/pkg/config"
	"github.com/bastiangx/icdnorm/pkg/dictionary"
	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/bastiangx/icdnorm/pkg/refine"
	"github.com/bastiangx/icdnorm/pkg/segment"
	"github.com/bastiangx/icdnorm/pkg/server"
	"github.com/bastiangx/icdnorm/pkg/validate"
	"github.com/charmbracelet/log"
)

// app is everything loaded once at startup and shared by every mode.
type app struct {
	dict     *dictionary.Dictionary
	manifest *dictionary.Manifest
	canon    *canon.Canonicalizer
	seg      *segment.Segmenter
	pipeline *pipeline.Pipeline
}

func newApp(dir string, cfg *config.Config) (*app, error) {
	d, m, err := dictionary.Load(dir)
	if err != nil {
		return nil, err
	}

	rules := canon.DefaultRuleSet()
	if m.RulesFile != "" {
		if rules, err = canon.LoadRuleSet(m.Path(m.RulesFile)); err != nil {
			return nil, &dictionary.ConfigError{Source: m.Path(m.RulesFile), Err: err}
		}
	}
	c, err := canon.New(rules)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	table := validate.DefaultTable()
	if m.EquivalenceFile != "" {
		if table, err = validate.LoadTable(m.Path(m.EquivalenceFile)); err != nil {
			return nil, &dictionary.ConfigError{Source: m.Path(m.EquivalenceFile), Err: err}
		}
	}

	seg := segment.New(d,
		segment.WithExperimental(cfg.Segment.Experimental),
		segment.WithMaxLiveStates(cfg.Segment.MaxLiveStates),
	)

	opts := []pipeline.Option{pipeline.WithChainSplit(cfg.Pipeline.ChainSplit)}
	if cfg.Segment.CacheSize > 0 {
		cache, err := segment.NewCache(cfg.Segment.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("segment cache: %w", err)
		}
		opts = append(opts, pipeline.WithCache(cache))
	}

	p := pipeline.New(c, seg, refine.New(d), validate.New(d, validate.WithTable(table)), opts...)
	log.Debugf("Pipeline ready: %d terms, %d groups, %d rules, %d combinations",
		d.Len(), d.Groups(), c.Len(), len(table.Combinations))

	return &app{dict: d, manifest: m, canon: c, seg: seg, pipeline: p}, nil
}

func (a *app) info() server.Info {
	return server.Info{
		DictID:       a.manifest.ID,
		DictVersion:  a.manifest.Version,
		Terms:        a.dict.Len(),
		Groups:       a.dict.Groups(),
		Rules:        a.canon.Len(),
		Experimental: a.seg.Experimental(),
	}
}
