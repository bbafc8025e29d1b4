// Package record holds the per-row data model shared by the pipeline, the validator and the exporters.
package record

import "strings"

// Category is one of the five fixed diagnosis-chain positions of a death certificate row.
type Category int

const (
	CategoryA Category = iota // 甲
	CategoryB                 // 乙
	CategoryC                 // 丙
	CategoryD                 // 丁
	CategoryOther             // 其他
)

// SlotWidth is the number of slots per category.
const SlotWidth = 4

// Categories lists every category in chain order.
var Categories = []Category{CategoryA, CategoryB, CategoryC, CategoryD, CategoryOther}

// ChainCategories are the categories that form the causal chain (其他 is excluded).
var ChainCategories = []Category{CategoryA, CategoryB, CategoryC, CategoryD}

var categoryNames = [...]string{"甲", "乙", "丙", "丁", "其他"}
var categoryCodes = [...]string{"CA", "CB", "CC", "CD", "CE"}

// slotTags are the column suffixes for the four slots: 甲, 甲2, 甲3, 甲4.
var slotTags = [SlotWidth]string{"", "2", "3", "4"}

// String returns the column label used by the source spreadsheets.
func (c Category) String() string {
	if c < CategoryA || c > CategoryOther {
		return "?"
	}
	return categoryNames[c]
}

// Code returns the export code prefix (CA..CE).
func (c Category) Code() string {
	if c < CategoryA || c > CategoryOther {
		return ""
	}
	return categoryCodes[c]
}

// Column returns the source column name for slot i (0-based).
func (c Category) Column(i int) string {
	return c.String() + slotTags[i]
}

// ParseCategory maps a label back to its Category.
func ParseCategory(s string) (Category, bool) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), true
		}
	}
	return 0, false
}

// Slots is a fixed-width group of terms. Empty string means unused.
type Slots [SlotWidth]string

// SlotsOf fits terms into a Slots value, padding with "" and dropping overflow.
func SlotsOf(terms []string) Slots {
	var s Slots
	copy(s[:], terms)
	return s
}

// Terms returns the non-empty slots in order.
func (s Slots) Terms() []string {
	out := make([]string, 0, SlotWidth)
	for _, v := range s {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Empty reports whether every slot is unused.
func (s Slots) Empty() bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}

// Placeholder marks an unreadable character in transcribed input.
const Placeholder = "?"

// FullwidthPlaceholder is the same mark typed with a CJK input method.
const FullwidthPlaceholder = "？"

// IsDirty reports whether s contains the unreadable placeholder in either
// width. Raw input is checked before any width folding.
func IsDirty(s string) bool {
	return strings.Contains(s, Placeholder) || strings.Contains(s, FullwidthPlaceholder)
}

// Dirty reports whether any slot contains the placeholder.
func (s Slots) Dirty() bool {
	for _, v := range s {
		if IsDirty(v) {
			return true
		}
	}
	return false
}
