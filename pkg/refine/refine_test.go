package refine

import (
	"reflect"
	"testing"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/dictionary"
)

func testRefiner(t *testing.T) *Refiner {
	t.Helper()
	d, err := dictionary.Build(dictionary.Sources{
		Terms:    []string{"肺癌", "肺惡性腫瘤", "癌", "COVID-19", "新冠肺炎"},
		Synonyms: [][]string{{"肺癌", "肺惡性腫瘤"}, {"COVID-19", "新冠肺炎"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(d)
}

func TestRefine(t *testing.T) {
	r := testRefiner(t)
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"subset dropped", []string{"癌", "肺癌"}, []string{"肺癌", "", "", ""}},
		{"empty input", nil, []string{"", "", "", ""}},
		{"synonym collapse keeps first", []string{"新冠肺炎", "呼吸衰竭", "COVID-19"}, []string{"新冠肺炎", "呼吸衰竭", "", ""}},
		{"dedup", []string{"肺炎", "敗血症", "肺炎"}, []string{"肺炎", "敗血症", "", ""}},
		{"truncate keeps earliest", []string{"甲一", "乙二", "丙三", "丁四", "戊五"}, []string{"甲一", "乙二", "丙三", "丁四"}},
		{"equal char sets kept", []string{"腦中風", "中風腦"}, []string{"腦中風", "中風腦", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Refine(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Refine(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	r := testRefiner(t)
	if got := r.Clean([]string{"癌", "肺癌"}); !reflect.DeepEqual(got, []string{"肺癌"}) {
		t.Errorf("Clean = %v", got)
	}
	if got := New(nil).Clean([]string{"COVID-19", "新冠肺炎"}); len(got) != 2 {
		t.Errorf("nil synonyms should not collapse: %v", got)
	}
}

func TestRefineInvariants(t *testing.T) {
	r := testRefiner(t)
	inputs := [][]string{
		{"癌", "肺癌", "肺惡性腫瘤", "肺癌", "癌"},
		{"高血壓", "高血壓性心臟病", "心臟病", "肺炎", "敗血症", "呼吸衰竭"},
		{"COVID-19", "新冠肺炎", "肺炎", "炎"},
	}
	for _, in := range inputs {
		got := r.Clean(in)
		if len(r.Refine(in)) != 4 {
			t.Errorf("Refine(%v) width != 4", in)
		}
		if !reflect.DeepEqual(got, utils.Dedup(got)) {
			t.Errorf("Clean(%v) has duplicates: %v", in, got)
		}
		for _, a := range got {
			for _, b := range got {
				if utils.IsStrictCharSubset(a, b) {
					t.Errorf("Clean(%v): %q is a subset of %q", in, a, b)
				}
			}
		}
	}
}

func TestFit(t *testing.T) {
	if got := Fit([]string{"a"}, 3); !reflect.DeepEqual(got, []string{"a", "", ""}) {
		t.Errorf("Fit pad = %v", got)
	}
	if got := Fit([]string{"a", "b", "c"}, 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Fit truncate = %v", got)
	}
}
