package pipeline

import (
	"strings"

	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/charmbracelet/log"
)

// CauseConnectives join "cause connective effect" inside one phrase, tried in order.
var CauseConnectives = []string{"導致", "引發"}

// splitCause splits phrase once on the first connective found.
func splitCause(phrase string) (cause, effect string, ok bool) {
	for _, conn := range CauseConnectives {
		if before, after, found := strings.Cut(phrase, conn); found {
			return before, after, true
		}
	}
	return "", phrase, false
}

// ShiftChain rebuilds the causal chain categories. Empty categories are
// closed up, and a phrase "A導致B" keeps B in its category while A is moved
// into a new category inserted right after it. Chains longer than four
// categories lose their tail. 其他 is copied unchanged.
func ShiftChain(inputs map[record.Category]record.Slots) map[record.Category]record.Slots {
	var chain []record.Slots
	for _, c := range record.ChainCategories {
		slots := inputs[c]
		if slots.Empty() {
			continue
		}
		var current, causes []string
		for _, phrase := range slots {
			cause, effect, ok := splitCause(phrase)
			current = append(current, effect)
			if ok {
				causes = append(causes, cause)
			}
		}
		chain = append(chain, record.SlotsOf(current))
		if len(causes) > 0 {
			chain = append(chain, record.SlotsOf(causes))
		}
	}
	if len(chain) > len(record.ChainCategories) {
		log.Debugf("Causal chain of %d categories truncated", len(chain))
	}

	out := make(map[record.Category]record.Slots, len(record.Categories))
	for i, c := range record.ChainCategories {
		if i < len(chain) {
			out[c] = chain[i]
		} else {
			out[c] = record.Slots{}
		}
	}
	out[record.CategoryOther] = inputs[record.CategoryOther]
	return out
}
