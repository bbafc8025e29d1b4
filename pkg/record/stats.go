package record

// Stats aggregates outcomes over a set of records. Merge is commutative and
// associative so per-file stats can be reduced in any order.
type Stats struct {
	Name    string
	Total   int
	Correct int
	Exact   int
	Dirty   int
}

// Add folds one record into the counters.
func (s *Stats) Add(r *Record) {
	s.Total++
	if r.IsCorrect() {
		s.Correct++
	}
	if r.IsIdentical() {
		s.Exact++
	}
	s.Dirty += r.DirtyCategories()
}

// Merge adds the counters of o. The name of s is kept.
func (s *Stats) Merge(o Stats) {
	s.Total += o.Total
	s.Correct += o.Correct
	s.Exact += o.Exact
	s.Dirty += o.Dirty
}

// CorrectRate is Correct/Total, 0 for an empty set.
func (s Stats) CorrectRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// ExactRate is Exact/Total, 0 for an empty set.
func (s Stats) ExactRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Exact) / float64(s.Total)
}

// Sum reduces stats into one named total.
func Sum(name string, stats ...Stats) Stats {
	total := Stats{Name: name}
	for _, s := range stats {
		total.Merge(s)
	}
	return total
}
