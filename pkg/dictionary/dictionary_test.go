package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func testDict(t *testing.T) *Dictionary {
	t.Helper()
	d, err := Build(Sources{
		Terms: []string{"高血壓", "高血壓性心臟病", "心臟病", "肺炎", "肺癌", "癌", "COVID-19", "高血壓", "舊詞"},
		Synonyms: [][]string{
			{"COVID-19", "COVID 19", "新冠肺炎"},
			{"肺癌", "肺惡性腫瘤"},
		},
		Exclusions: []string{"舊詞", "不存在"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func TestBuild(t *testing.T) {
	d := testDict(t)
	if d.Len() != 7 {
		t.Errorf("Len() = %d, want 7 (duplicate and exclusion removed)", d.Len())
	}
	if d.Contains("舊詞") {
		t.Error("excluded term still present")
	}
	if order, ok := d.Order("肺炎"); !ok || order != 3 {
		t.Errorf("Order(肺炎) = %d, %v", order, ok)
	}
	if d.Groups() != 2 {
		t.Errorf("Groups() = %d, want 2", d.Groups())
	}
}

func TestBuildNormalizes(t *testing.T) {
	d, err := Build(Sources{Terms: []string{"ＣＯＶＩＤ－１９", " 肺炎 "}})
	if err != nil {
		t.Fatal(err)
	}
	if !d.Contains("COVID-19") || !d.Contains("肺炎") {
		t.Errorf("terms not normalized: %v", d.Terms())
	}
}

func TestLookups(t *testing.T) {
	d := testDict(t)
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"contains whole", d.Contains("高血壓"), true},
		{"contains partial", d.Contains("高血"), false},
		{"contains empty", d.Contains(""), false},
		{"prefix partial", d.HasPrefix("高血"), true},
		{"prefix whole", d.HasPrefix("肺炎"), true},
		{"prefix none", d.HasPrefix("腎"), false},
		{"prefix empty", d.HasPrefix(""), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLongestPrefixOf(t *testing.T) {
	d := testDict(t)
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"高血壓性心臟病末期", "高血壓性心臟病", true},
		{"高血壓心臟病", "高血壓", true},
		{"心臟病", "心臟病", true},
		{"腎衰竭", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := d.LongestPrefixOf(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LongestPrefixOf(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMembershipIsOwnLongestPrefix(t *testing.T) {
	d := testDict(t)
	for _, term := range d.Terms() {
		got, ok := d.LongestPrefixOf(term)
		if !ok || got != term {
			t.Errorf("LongestPrefixOf(%q) = %q, %v", term, got, ok)
		}
	}
}

func TestSynonymGroups(t *testing.T) {
	d := testDict(t)
	a, okA := d.SynonymGroupOf("COVID-19")
	b, okB := d.SynonymGroupOf("covid 19")
	if !okA || !okB || a != b {
		t.Errorf("COVID-19 and covid 19 should share a group: %d/%v %d/%v", a, okA, b, okB)
	}
	c, _ := d.SynonymGroupOf("肺癌")
	if c == a {
		t.Error("distinct groups share an id")
	}
	if _, ok := d.SynonymGroupOf("高血壓"); ok {
		t.Error("高血壓 should not be in a group")
	}
}

func TestSynonymGroupsMerge(t *testing.T) {
	d, err := Build(Sources{Synonyms: [][]string{{"a", "b"}, {"c", "d"}, {"b", "c"}}})
	if err != nil {
		t.Fatal(err)
	}
	ga, _ := d.SynonymGroupOf("a")
	gd, _ := d.SynonymGroupOf("d")
	if ga != gd {
		t.Errorf("overlapping groups not merged: %d vs %d", ga, gd)
	}
	if d.Groups() != 1 {
		t.Errorf("Groups() = %d, want 1", d.Groups())
	}
}

func TestBuildRejectsSmallGroup(t *testing.T) {
	_, err := Build(Sources{Synonyms: [][]string{{"肺炎", "肺炎"}}})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !errors.Is(err, ErrSmallGroup) {
		t.Errorf("expected ErrSmallGroup in chain, got %v", err)
	}
}

func TestConcurrentReads(t *testing.T) {
	d := testDict(t)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				d.LongestPrefixOf("高血壓性心臟病")
				d.HasPrefix("肺")
				d.SynonymGroupOf("COVID-19")
			}
		}()
	}
	wg.Wait()
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestName, `id: icd-test
version: "1"
terms_file: icd.csv
additions_file: additions.csv
exclusions_file: exclude.csv
synonyms_file: synonym.csv
`)
	writeFile(t, dir, "icd.csv", "diagnosis\n肺炎\n高血壓\n舊詞\n")
	writeFile(t, dir, "additions.csv", "diagnosis\n車禍B1行人*機車\n")
	writeFile(t, dir, "exclude.csv", "diagnosis\n舊詞\n")
	writeFile(t, dir, "synonym.csv", "ICD1,diagnosis\nJ128,COVID-19\nJ128,新冠肺炎\nI10,高血壓\n")

	d, m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ID != "icd-test" || m.Path("x.yaml") != filepath.Join(dir, "x.yaml") {
		t.Errorf("manifest = %+v", m)
	}
	if want := []string{"肺炎", "高血壓", "車禍B1行人*機車"}; !reflect.DeepEqual(d.Terms(), want) {
		t.Errorf("Terms() = %v, want %v", d.Terms(), want)
	}
	if d.Groups() != 1 {
		t.Errorf("Groups() = %d, want 1 (single-term key skipped)", d.Groups())
	}

	excluded, err := m.ReadColumn(m.ExclusionsFile)
	if err != nil || !reflect.DeepEqual(excluded, []string{"舊詞"}) {
		t.Errorf("ReadColumn = %v, %v", excluded, err)
	}
	if none, err := m.ReadColumn(""); none != nil || err != nil {
		t.Errorf("ReadColumn(\"\") = %v, %v", none, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no manifest", map[string]string{}},
		{"missing terms file", map[string]string{ManifestName: "id: x\n"}},
		{"missing column", map[string]string{ManifestName: "id: x\n", "icd.csv": "name\n肺炎\n"}},
		{"empty terms", map[string]string{ManifestName: "id: x\n", "icd.csv": "diagnosis\n"}},
		{"bad yaml", map[string]string{ManifestName: "id: [\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, _, err := Load(dir)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	g := Generate(
		[]string{"肺炎", "高血壓", "舊詞"},
		[]string{"肺炎", "新詞", "心?衰竭", ""},
		[]string{"舊詞", "查無"},
		"?",
	)
	if want := []string{"新詞", "肺炎", "高血壓"}; !reflect.DeepEqual(g.Terms, want) {
		t.Errorf("Terms = %v, want %v", g.Terms, want)
	}
	if want := []string{"新詞"}; !reflect.DeepEqual(g.Unverified, want) {
		t.Errorf("Unverified = %v, want %v", g.Unverified, want)
	}
	if want := []string{"查無"}; !reflect.DeepEqual(g.MissingExclusions, want) {
		t.Errorf("MissingExclusions = %v, want %v", g.MissingExclusions, want)
	}

	path := filepath.Join(t.TempDir(), "icd.csv")
	if err := WriteTerms(path, "diagnosis", g.Terms); err != nil {
		t.Fatal(err)
	}
	got, err := readColumn(path, "", "diagnosis")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, g.Terms) {
		t.Errorf("readColumn = %v, want %v", got, g.Terms)
	}
}
