package canon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRuleSet reads a YAML rule table. Sections left empty in the file fall
// back to the built-in tables, so a file may override only the traffic table.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if len(rs.Rules) == 0 {
		rs.Rules = DefaultRules()
	}
	if len(rs.Overrides) == 0 {
		rs.Overrides = DefaultOverrides()
	}
	if len(rs.Traffic) == 0 {
		rs.Traffic = DefaultTraffic()
	}
	for i, r := range rs.Rules {
		if r.Pattern == "" {
			return RuleSet{}, fmt.Errorf("rules %s: rule #%d (%s) has no pattern", path, i+1, r.Name)
		}
	}
	return rs, nil
}
