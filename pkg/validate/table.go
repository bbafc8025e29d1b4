package validate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Combination says that PartA and PartB together mean the same as Combined.
type Combination struct {
	PartA    string `yaml:"part_a"`
	PartB    string `yaml:"part_b"`
	Combined string `yaml:"combined"`
}

// Markers are semantically neutral qualifiers. A term with a marker attached
// is equivalent to the bare term.
type Markers struct {
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// Table is the hand-maintained equivalence data.
type Table struct {
	Combinations []Combination `yaml:"combinations"`
	Markers      Markers       `yaml:"markers"`
}

// DefaultTable returns the built-in equivalence data.
func DefaultTable() Table {
	return Table{
		Combinations: []Combination{
			{PartA: "糖尿病", PartB: "腎臟病", Combined: "糖尿病腎臟病"},
			{PartA: "糖尿病", PartB: "腎病變", Combined: "糖尿病腎病變"},
			{PartA: "高血壓", PartB: "心臟病", Combined: "高血壓性心臟病"},
			{PartA: "高血壓", PartB: "腎臟病", Combined: "高血壓性腎臟病"},
			{PartA: "慢性阻塞性肺病", PartB: "急性發作", Combined: "慢性阻塞性肺病急性發作"},
		},
		Markers: Markers{
			Prefixes: []string{"末期", "晚期"},
			Suffixes: []string{"病史", "術後", "復發", "末期"},
		},
	}
}

// LoadTable reads a YAML equivalence table. An empty markers section keeps
// the built-in markers; combinations are taken from the file as given.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read equivalence table %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse equivalence table %s: %w", path, err)
	}
	for i, c := range t.Combinations {
		if c.PartA == "" || c.PartB == "" || c.Combined == "" {
			return Table{}, fmt.Errorf("equivalence table %s: combination #%d is incomplete", path, i+1)
		}
	}
	if len(t.Markers.Prefixes) == 0 && len(t.Markers.Suffixes) == 0 {
		t.Markers = DefaultTable().Markers
	}
	return t, nil
}
