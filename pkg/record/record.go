package record

import "fmt"

// Row is one raw source row as handed to the pipeline.
type Row struct {
	Year    int
	Month   int
	Serial  int
	Number  int
	Inputs  map[Category]Slots
	Targets map[Category]Slots
}

// NewRow returns a Row with every category present and empty.
func NewRow() Row {
	r := Row{
		Inputs:  make(map[Category]Slots, len(Categories)),
		Targets: make(map[Category]Slots, len(Categories)),
	}
	for _, c := range Categories {
		r.Inputs[c] = Slots{}
		r.Targets[c] = Slots{}
	}
	return r
}

// Record is the processed outcome of a Row.
type Record struct {
	Year    int
	Month   int
	Serial  int
	Number  int
	Inputs  map[Category]Slots
	Results map[Category]Slots
	Targets map[Category]Slots

	// Identical is strict set equality between result and target.
	Identical map[Category]bool
	// Correct is the fuzzy validator verdict.
	Correct map[Category]bool
}

// NewRecord starts a Record from a Row; results and verdicts are filled in by the pipeline.
func NewRecord(row Row) *Record {
	return &Record{
		Year:      row.Year,
		Month:     row.Month,
		Serial:    row.Serial,
		Number:    row.Number,
		Inputs:    row.Inputs,
		Results:   make(map[Category]Slots, len(Categories)),
		Targets:   row.Targets,
		Identical: make(map[Category]bool, len(Categories)),
		Correct:   make(map[Category]bool, len(Categories)),
	}
}

// IsCorrect reports whether every category passed validation.
func (r *Record) IsCorrect() bool {
	for _, c := range Categories {
		if !r.Correct[c] {
			return false
		}
	}
	return true
}

// IsIdentical reports whether every category matched its target exactly.
func (r *Record) IsIdentical() bool {
	for _, c := range Categories {
		if !r.Identical[c] {
			return false
		}
	}
	return true
}

// DirtyCategories counts categories whose raw input carries the placeholder.
func (r *Record) DirtyCategories() int {
	n := 0
	for _, c := range Categories {
		if r.Inputs[c].Dirty() {
			n++
		}
	}
	return n
}

// Dirty reports whether any raw input carries the placeholder.
func (r *Record) Dirty() bool {
	return r.DirtyCategories() > 0
}

// ErrorRow describes one category that failed validation.
type ErrorRow struct {
	Serial   int
	Category Category
	Inputs   []string
	Results  []string
	Targets  []string
}

// Errors returns one ErrorRow per failing category.
func (r *Record) Errors() []ErrorRow {
	var rows []ErrorRow
	for _, c := range Categories {
		if r.Correct[c] {
			continue
		}
		rows = append(rows, ErrorRow{
			Serial:   r.Serial,
			Category: c,
			Inputs:   r.Inputs[c].Terms(),
			Results:  r.Results[c].Terms(),
			Targets:  r.Targets[c].Terms(),
		})
	}
	return rows
}

// ForJSON flattens the record into the export shape keyed CA1..CE4.
func (r *Record) ForJSON() map[string]string {
	out := map[string]string{
		"資料鍵入年":   fmt.Sprint(r.Year),
		"資料鍵入月":   fmt.Sprintf("%02d", r.Month),
		"死因自動流水號": fmt.Sprintf("%06d", r.Serial),
	}
	for _, c := range Categories {
		res := r.Results[c]
		for i := range SlotWidth {
			out[fmt.Sprintf("%s%d", c.Code(), i+1)] = res[i]
		}
	}
	return out
}
