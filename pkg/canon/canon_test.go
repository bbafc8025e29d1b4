package canon

import (
	"os"
	"path/filepath"
	"testing"
)

var samples = []struct {
	in, want string
}{
	// connectives guarded by lookaround
	{"肺炎併發敗血症", "肺炎敗血症"},
	{"肺炎併發症", "肺炎併發症"},
	{"糖尿病合併腎病變", "糖尿病腎病變"},
	{"糖尿病合併症", "糖尿病合併症"},
	{"高血壓併心臟病", "高血壓心臟病"},
	{"肺炎 及 敗血症", "肺炎敗血症"},
	{"肺炎並呼吸衰竭", "肺炎呼吸衰竭"},
	{"死因未明", "死因"},
	{"到院前心肺功能停止", "前心肺功能停止"},
	{"肺炎_敗血症", "肺炎敗血症"},

	// qualifiers
	{"無明顯外傷性死因", ""},
	{"高齡無外傷性死因", "高齡"},
	{"非新冠肺炎之肺炎", "之肺炎"},

	// spelling
	{"類風溼性關節炎", "類風濕性關節炎"},
	{"濕疹", "溼疹"},
	{"高處墬落", "高處墜落"},
	{"COVID19", "COVID-19"},
	{"ＣＯＶＩＤ１９", "COVID-19"},

	// phrasing
	{"心血管疾患", "心血管疾病"},
	{"末期腎疾患", "末期腎疾病"},
	{"敗血休克", "敗血性休克"},
	{"鬱血心衰竭", "鬱血性心衰竭"},
	{"急性缺氧呼吸衰竭", "急性缺氧性呼吸衰竭"},
	{"阻塞性睡眠呼吸中止症", "阻塞性睡眠呼吸中止症候群"},
	{"呼吸中止症候群", "呼吸中止症候群"},
	{"免疫低下", "免疫力低下"},
	{"瀰漫大B細胞淋巴瘤", "瀰漫性大B細胞淋巴瘤"},
	{"武漢肺炎", "新冠肺炎"},
	{"嚴重特殊傳染性疾病確診", "新冠肺炎"},
	{"乳腺惡性腫瘤", "乳腺癌"},
	{"腸胃道大出血", "腸胃道出血"},

	// overrides
	{"燒碳", "燒炭"},
	{"洗腎", "腎衰竭"},
	{"洗腎後", "洗腎後"},

	// traffic
	{"行人遭機車撞擊", "車禍B1行人*機車"},
	{"行人遭摩托車撞擊", "車禍B1行人*機車"},
	{"行人被小客車撞", "車禍B2行人*汽車"},
	{"行人被大客車撞", "車禍B4行人*大貨車"},
	{"行人被小貨車撞", "車禍B3行人*貨車"},
	{"行人 被 火車 撞", "車禍B6行人*火車"},
	{"機車騎士與小客車碰撞", "車禍D1機車騎士*汽車"},
	{"機車騎士與大貨車碰撞", "車禍D3機車騎士*大貨車"},
	{"機車騎士與自行車碰撞", "車禍D0機車騎士*腳踏車"},
	{"機車騎士自撞", "機車騎士自撞"},
	{"機車與汽車碰撞", "車禍A21機車*汽車"},
	{"機車與機車碰撞", "車禍A20機車"},
	{"腳踏車被汽車撞", "車禍C2腳踏車騎士*汽車"},
	{"自行車與摩托車碰撞", "車禍C1腳踏車騎士*機車"},
	{"自行車與機車碰撞", "自行車與機車碰撞"},
	{"自行車與貨車碰撞", "車禍C3腳踏車騎士*小貨車"},
}

func TestCanonicalize(t *testing.T) {
	c := Default()
	for _, tt := range samples {
		if got := c.Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// joined are inputs where removing a separator or filler completes a pattern
// that an earlier rule has already passed over.
var joined = []struct {
	in, want string
}{
	{"合 併發症", "發症"},
	{"合及併發症", "發症"},
	{"無明顯 外傷", ""},
	{"無明顯_外傷性死因", ""},
	{"無明顯未明外傷", ""},
	{"未 明肺炎", "肺炎"},
	{"非新冠 肺炎", ""},
	{"肺炎 併 發 敗血症", "肺炎敗血症"},
	{"武漢 肺炎", "新冠肺炎"},
	{"敗血 休克", "敗血性休克"},
}

func TestCanonicalizeJoined(t *testing.T) {
	c := Default()
	for _, tt := range joined {
		if got := c.Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := Default()
	inputs := make([]string, 0, len(samples)+len(joined))
	for _, tt := range samples {
		inputs = append(inputs, tt.in)
	}
	for _, tt := range joined {
		inputs = append(inputs, tt.in)
	}
	for _, tr := range DefaultTraffic() {
		for _, v := range tr.Vehicles {
			inputs = append(inputs, v.Label)
		}
	}
	for _, in := range inputs {
		once := c.Canonicalize(in)
		if twice := c.Canonicalize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTraceMatchesCanonicalize(t *testing.T) {
	c := Default()
	for _, tt := range joined {
		got, steps := c.Trace(tt.in)
		if got != c.Canonicalize(tt.in) {
			t.Errorf("Trace(%q) = %q, Canonicalize disagrees", tt.in, got)
		}
		if tt.in != tt.want && len(steps) == 0 {
			t.Errorf("Trace(%q) reported no steps", tt.in)
		}
	}
}

func TestRulesIndependently(t *testing.T) {
	c := Default()
	byName := make(map[string]*compiledRule, c.Len())
	for _, r := range c.rules {
		byName[r.Name] = r
	}
	tests := []struct {
		rule, in, want string
	}{
		{"lone-bing", "合併", "合併"},
		{"lone-bing", "併發", "併發"},
		{"lone-bing", "A併B", "AB"},
		{"hebing", "合併症", "合併症"},
		{"hebing", "A合併B", "AB"},
		{"bingfa", "併發症", "併發症"},
		{"bingfa", "A併發B", "AB"},
		{"whitespace", "A \tB", "AB"},
		{"sleep-apnea", "呼吸中止症候群", "呼吸中止症候群"},
		{"major-bleeding", "大大出血", "出血"},
	}
	for _, tt := range tests {
		r, ok := byName[tt.rule]
		if !ok {
			t.Fatalf("rule %s not found", tt.rule)
		}
		if got := r.Apply(tt.in); got != tt.want {
			t.Errorf("%s.Apply(%q) = %q, want %q", tt.rule, tt.in, got, tt.want)
		}
	}
}

func TestTrace(t *testing.T) {
	c := Default()
	out, steps := c.Trace("敗血休克 及 武漢肺炎")
	if out != "敗血性休克新冠肺炎" {
		t.Fatalf("Trace output = %q", out)
	}
	var names []string
	for _, s := range steps {
		names = append(names, s.Rule)
	}
	want := []string{"whitespace", "ji", "septic-shock", "wuhan-pneumonia"}
	if len(names) != len(want) {
		t.Fatalf("steps = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(RuleSet{Rules: []Rule{{Name: "broken", Pattern: "(?<!"}}})
	if err == nil {
		t.Fatal("expected compile error")
	}
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `overrides:
  - from: 洗腎
    to: 末期腎病
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rs, err := LoadRuleSet(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs.Rules) != len(DefaultRules()) || len(rs.Traffic) != len(DefaultTraffic()) {
		t.Error("empty sections should fall back to defaults")
	}
	c, err := New(rs)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Canonicalize("洗腎"); got != "末期腎病" {
		t.Errorf("override from file not applied: %q", got)
	}

	if _, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
