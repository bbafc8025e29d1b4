package main

import (
	"fmt"
	"path/filepath"

	"github.com/bastiangx/icdnorm/pkg/dictionary"
	"github.com/bastiangx/icdnorm/pkg/ingest"
	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/charmbracelet/log"
)

// runGenerate rebuilds the term list from the curated sources in dictDir and
// the reference annotations found in annotationDir, then writes it to out.
func runGenerate(dictDir, annotationDir, out, enc string) error {
	m, err := dictionary.LoadManifest(filepath.Join(dictDir, dictionary.ManifestName))
	if err != nil {
		return err
	}

	curated, err := m.ReadColumn(m.TermsFile)
	if err != nil {
		return err
	}
	additions, err := m.ReadColumn(m.AdditionsFile)
	if err != nil {
		return err
	}
	exclusions, err := m.ReadColumn(m.ExclusionsFile)
	if err != nil {
		return err
	}

	var annotations []string
	if annotationDir != "" {
		if annotations, err = readAnnotations(annotationDir, enc); err != nil {
			return err
		}
	} else {
		log.Warn("No -batch directory given; generating from curated terms only")
	}

	gen := dictionary.Generate(append(curated, additions...), annotations, exclusions, record.Placeholder)
	for _, e := range gen.MissingExclusions {
		log.Warnf("Exclusion %q matches no term", e)
	}
	if err := dictionary.WriteTerms(out, m.TermColumn, gen.Terms); err != nil {
		return err
	}
	fmt.Printf("terms: %d  from annotations: %d  written: %s\n", len(gen.Terms), len(gen.Unverified), out)
	return nil
}

// readAnnotations collects every reference term of every month file.
func readAnnotations(dir, enc string) ([]string, error) {
	files, err := ingest.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	reader := ingest.NewReader(enc)
	var terms []string
	for _, path := range files {
		_, rows, err := reader.ReadFile(path)
		if err != nil {
			log.Errorf("Skipping %s: %v", path, err)
			continue
		}
		for _, row := range rows {
			for _, c := range record.Categories {
				for _, term := range row.Targets[c].Terms() {
					if !record.IsDirty(term) {
						terms = append(terms, term)
					}
				}
			}
		}
	}
	log.Debugf("Read %d annotation terms from %d files", len(terms), len(files))
	return terms, nil
}
