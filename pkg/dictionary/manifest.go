package dictionary

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file Load looks for inside a dictionary directory.
const ManifestName = "manifest.yaml"

// Manifest describes the files that make up a dictionary directory.
// Paths are relative to the manifest's directory.
type Manifest struct {
	ID          string `yaml:"id"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Encoding    string `yaml:"encoding"`

	TermsFile       string `yaml:"terms_file"`
	AdditionsFile   string `yaml:"additions_file"`
	SynonymsFile    string `yaml:"synonyms_file"`
	ExclusionsFile  string `yaml:"exclusions_file"`
	EquivalenceFile string `yaml:"equivalence_file"`
	RulesFile       string `yaml:"rules_file"`

	// TermColumn names the term column in every CSV source.
	TermColumn string `yaml:"term_column"`
	// GroupColumn names the group key column of the synonym source.
	GroupColumn string `yaml:"group_column"`

	dir string
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ConfigError{Source: path, Err: fmt.Errorf("parse manifest: %w", err)}
	}
	if m.ID == "" {
		return nil, &ConfigError{Source: path, Err: fmt.Errorf("missing id")}
	}
	if m.TermsFile == "" {
		m.TermsFile = "icd.csv"
	}
	if m.TermColumn == "" {
		m.TermColumn = "diagnosis"
	}
	if m.GroupColumn == "" {
		m.GroupColumn = "ICD1"
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Dir returns the directory the manifest was loaded from.
func (m *Manifest) Dir() string {
	return m.dir
}

// Path resolves a manifest-relative file. Empty names stay empty.
func (m *Manifest) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.dir, name)
}
