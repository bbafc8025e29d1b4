package segment

import (
	"reflect"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/bastiangx/icdnorm/pkg/dictionary"
)

func testLexicon(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d, err := dictionary.Build(dictionary.Sources{Terms: []string{
		"高血壓", "高血壓性心臟病", "心臟病", "肺炎", "敗血症",
		"糖尿病", "腎臟病", "慢性腎臟病", "呼吸衰竭", "急性呼吸衰竭",
	}})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSegment(t *testing.T) {
	s := New(testLexicon(t))
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"高血壓", []string{"高血壓"}},
		{"高血壓心臟病", []string{"高血壓", "心臟病"}},
		{"高血壓性心臟病", []string{"高血壓性心臟病"}},
		{"肺炎敗血症", []string{"肺炎", "敗血症"}},
		{"疑似肺炎", []string{"肺炎"}},
		{"糖尿病慢性腎臟病", []string{"糖尿病", "慢性腎臟病"}},
		{"急性嚴重呼吸衰竭", []string{"呼吸衰竭"}},
		{"xyz", []string{}},
	}
	for _, tt := range tests {
		got := s.Segment(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Segment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSegmentExperimental(t *testing.T) {
	s := New(testLexicon(t), WithExperimental(true))
	if !s.Experimental() {
		t.Fatal("experimental flag not set")
	}
	tests := []struct {
		in   string
		want []string
	}{
		{"急性嚴重呼吸衰竭", []string{"急性呼吸衰竭", "呼吸衰竭"}},
		{"高血壓心臟病", []string{"高血壓", "心臟病"}},
		{"慢性末期腎臟病", []string{"慢性腎臟病", "腎臟病"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := s.Segment(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Segment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSegmentMembership(t *testing.T) {
	d := testLexicon(t)
	for _, mode := range []bool{false, true} {
		s := New(d, WithExperimental(mode))
		for _, term := range d.Terms() {
			if got := s.Segment(term); !reflect.DeepEqual(got, []string{term}) {
				t.Errorf("experimental=%v Segment(%q) = %v", mode, term, got)
			}
		}
	}
}

func TestSegmentBounded(t *testing.T) {
	s := New(testLexicon(t))
	inputs := []string{
		"高血壓高血壓高血壓", "肺炎x肺炎y肺炎", "心心心心心", "敗血症?呼吸衰竭", "abcdefghij",
	}
	for _, in := range inputs {
		got := s.Segment(in)
		if len(got) > utf8.RuneCountInString(in) {
			t.Errorf("Segment(%q) returned %d terms for %d runes", in, len(got), utf8.RuneCountInString(in))
		}
	}
}

func TestRecoverRespectsLimit(t *testing.T) {
	s := New(testLexicon(t), WithExperimental(true), WithMaxLiveStates(2))
	got := s.Segment("急性嚴重呼吸衰竭")
	for _, term := range got {
		if term == "急性呼吸衰竭" {
			t.Errorf("walk should stop growing at the live-state limit, got %v", got)
		}
	}
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}
	c.Add("a", []string{"肺炎"})
	c.Add("b", []string{"高血壓"})
	c.Add("c", []string{"糖尿病"})
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should be evicted")
	}
	got, ok := c.Get("c")
	if !ok || !reflect.DeepEqual(got, []string{"糖尿病"}) {
		t.Errorf("Get(c) = %v, %v", got, ok)
	}
	got[0] = "changed"
	again, _ := c.Get("c")
	if again[0] != "糖尿病" {
		t.Error("cached value aliased by caller")
	}

	var nilCache *Cache
	if _, ok := nilCache.Get("x"); ok || nilCache.Len() != 0 {
		t.Error("nil cache should behave as empty")
	}

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add(string(rune('a'+i)), []string{"x"})
			c.Get("c")
		}(i)
	}
	wg.Wait()
}
