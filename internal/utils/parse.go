package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// LoadTOMLFile decodes a TOML file into v. Keys that match no field of v are
// reported but do not fail the load.
func LoadTOMLFile(path string, v any) error {
	md, err := toml.DecodeFile(path, v)
	if err != nil {
		log.Warnf("TOML parsing error in config file %s: %v. Attempting partial recovery...", path, err)
		return err
	}
	for _, key := range md.Undecoded() {
		log.Warnf("Unknown config key %q in %s", key.String(), path)
	}
	return nil
}

// ParseTOMLWithRecovery decodes a TOML file into a generic table. When the
// whole file does not parse, each [section] is decoded on its own and the
// sections that fail are skipped, so one bad value only costs its section.
// It errors only when no section survives.
func ParseTOMLWithRecovery(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	whole := make(map[string]any)
	if _, err := toml.Decode(string(data), &whole); err == nil {
		return whole, nil
	}

	merged := make(map[string]any)
	for _, chunk := range splitSections(string(data)) {
		part := make(map[string]any)
		if _, err := toml.Decode(chunk, &part); err != nil {
			log.Warnf("Skipping unparsable section %q in %s: %v", sectionHeader(chunk), path, err)
			continue
		}
		mergeTables(merged, part)
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("no valid configuration in %s", path)
	}
	return merged, nil
}

// splitSections cuts TOML text before every line that opens a table header.
// Text before the first header forms its own chunk.
func splitSections(text string) []string {
	var chunks []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[") && b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if strings.TrimSpace(b.String()) != "" {
		chunks = append(chunks, b.String())
	}
	return chunks
}

func sectionHeader(chunk string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(chunk), "\n")
	if strings.HasPrefix(line, "[") {
		return strings.TrimSpace(line)
	}
	return "(top level)"
}

// mergeTables copies src into dst, descending into tables present in both.
func mergeTables(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		existing, both := dst[k].(map[string]any)
		if ok && both {
			mergeTables(existing, sub)
			continue
		}
		dst[k] = v
	}
}

// ExtractSection returns the named table of parsed TOML data.
func ExtractSection(data map[string]any, name string) (map[string]any, bool) {
	section, ok := data[name].(map[string]any)
	return section, ok
}

// Extract returns data[key] when it holds a T.
func Extract[T any](data map[string]any, key string) (T, bool) {
	val, ok := data[key].(T)
	return val, ok
}

// ExtractInt returns data[key] as an int. TOML integers decode as int64.
func ExtractInt(data map[string]any, key string) (int, bool) {
	val, ok := Extract[int64](data, key)
	return int(val), ok
}
