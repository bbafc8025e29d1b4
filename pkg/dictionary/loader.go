package dictionary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/charmbracelet/log"
)

// Load reads the manifest in dir and builds the Dictionary it describes.
// Curated terms and self-defined additions are merged in that order, then
// exclusions are applied. Any missing or malformed source is a ConfigError.
func Load(dir string) (*Dictionary, *Manifest, error) {
	m, err := LoadManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, nil, err
	}

	terms, err := readColumn(m.Path(m.TermsFile), m.Encoding, m.TermColumn)
	if err != nil {
		return nil, nil, err
	}
	if len(terms) == 0 {
		return nil, nil, &ConfigError{Source: m.Path(m.TermsFile), Err: ErrNoTerms}
	}

	if m.AdditionsFile != "" {
		additions, err := readColumn(m.Path(m.AdditionsFile), m.Encoding, m.TermColumn)
		if err != nil {
			return nil, nil, err
		}
		log.Debugf("Loaded %d self-defined terms", len(additions))
		terms = append(terms, additions...)
	}

	var exclusions []string
	if m.ExclusionsFile != "" {
		if exclusions, err = readColumn(m.Path(m.ExclusionsFile), m.Encoding, m.TermColumn); err != nil {
			return nil, nil, err
		}
	}

	var groups [][]string
	if m.SynonymsFile != "" {
		if groups, err = readGroups(m.Path(m.SynonymsFile), m.Encoding, m.GroupColumn, m.TermColumn); err != nil {
			return nil, nil, err
		}
	}

	d, err := Build(Sources{Terms: terms, Synonyms: groups, Exclusions: exclusions})
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("Dictionary %s@%s loaded from %s", m.ID, m.Version, dir)
	return d, m, nil
}

// openCSV opens path, transcoding from enc when it is not UTF-8.
func openCSV(path, enc string) (*csv.Reader, io.Closer, error) {
	r, closer, err := utils.OpenText(path, enc)
	if err != nil {
		return nil, nil, &ConfigError{Source: path, Err: err}
	}
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr, closer, nil
}

// header reads the header row and returns the index of each wanted column.
func header(cr *csv.Reader, path string, cols ...string) ([]int, error) {
	row, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Source: path, Err: fmt.Errorf("empty file")}
		}
		return nil, &ConfigError{Source: path, Err: err}
	}
	idx := make([]int, len(cols))
	for i, col := range cols {
		idx[i] = -1
		for j, name := range row {
			if utils.TrimBOM(strings.TrimSpace(name)) == col {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, &ConfigError{Source: path, Err: fmt.Errorf("%w %q", ErrMissingColumn, col)}
		}
	}
	return idx, nil
}

// readColumn reads one named column of a CSV file, skipping blank cells.
func readColumn(path, enc, col string) ([]string, error) {
	cr, closer, err := openCSV(path, enc)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	idx, err := header(cr, path, col)
	if err != nil {
		return nil, err
	}
	var out []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ConfigError{Source: path, Err: err}
		}
		if idx[0] >= len(row) {
			continue
		}
		if v := utils.NormalizeNFKC(row[idx[0]]); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// readGroups reads a two-column synonym source. Rows sharing a group key form
// one group; keys with a single row carry no synonymy and are skipped.
func readGroups(path, enc, groupCol, termCol string) ([][]string, error) {
	cr, closer, err := openCSV(path, enc)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	idx, err := header(cr, path, groupCol, termCol)
	if err != nil {
		return nil, err
	}
	var order []string
	byKey := make(map[string][]string)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ConfigError{Source: path, Err: err}
		}
		if idx[0] >= len(row) || idx[1] >= len(row) {
			continue
		}
		key := strings.TrimSpace(row[idx[0]])
		term := utils.NormalizeNFKC(row[idx[1]])
		if key == "" || term == "" {
			continue
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], term)
	}

	groups := make([][]string, 0, len(order))
	for _, key := range order {
		members := utils.Dedup(byKey[key])
		if len(members) < 2 {
			log.Debugf("Synonym key %s has a single term, skipped", key)
			continue
		}
		groups = append(groups, members)
	}
	return groups, nil
}

// ReadColumn reads the term column of a manifest-relative CSV source.
func (m *Manifest) ReadColumn(name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}
	return readColumn(m.Path(name), m.Encoding, m.TermColumn)
}
