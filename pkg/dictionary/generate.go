package dictionary

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bastiangx/icdnorm/internal/utils"
)

// Generated is the result of merging a curated term list with reference annotations.
type Generated struct {
	// Terms is the final vocabulary, sorted.
	Terms []string
	// Unverified lists annotation terms absent from the curated list, sorted.
	Unverified []string
	// MissingExclusions lists exclusions that matched nothing.
	MissingExclusions []string
}

// Generate merges curated terms with annotation terms and removes exclusions.
// Annotation terms containing the placeholder are ignored.
func Generate(curated, annotations, exclusions []string, placeholder string) Generated {
	keep := make(map[string]bool)
	for _, t := range utils.NormalizeAll(curated) {
		if t != "" {
			keep[t] = true
		}
	}

	var unverified []string
	for _, t := range utils.NormalizeAll(annotations) {
		if t == "" || (placeholder != "" && strings.Contains(t, placeholder)) {
			continue
		}
		if _, ok := keep[t]; !ok {
			keep[t] = true
			unverified = append(unverified, t)
		}
	}

	var missing []string
	for _, e := range utils.NormalizeAll(exclusions) {
		if _, ok := keep[e]; ok {
			keep[e] = false
		} else if e != "" {
			missing = append(missing, e)
		}
	}

	var terms []string
	for t, ok := range keep {
		if ok {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)
	sort.Strings(unverified)
	return Generated{Terms: terms, Unverified: unverified, MissingExclusions: missing}
}

// WriteTerms writes terms as a one-column CSV with the given header.
func WriteTerms(path, column string, terms []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{column}); err != nil {
		return err
	}
	for _, t := range terms {
		if err := w.Write([]string{t}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
