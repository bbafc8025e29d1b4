package canon

// Kind groups rules by purpose. It does not affect ordering.
type Kind string

const (
	KindConnective Kind = "connective"
	KindQualifier  Kind = "qualifier"
	KindSpelling   Kind = "spelling"
	KindPhrasing   Kind = "phrasing"
)

// Rule is one pattern substitution. Patterns use .NET-style syntax so that
// lookbehind and lookahead are available.
type Rule struct {
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// Override replaces a whole phrase that cannot be decomposed.
type Override struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// VehicleRule maps an antagonist vehicle to the final coded label.
// It fires when any keyword occurs at least MinCount times (default 1).
type VehicleRule struct {
	Any      []string `yaml:"any"`
	MinCount int      `yaml:"min_count,omitempty"`
	Label    string   `yaml:"label"`
}

// TrafficRule detects a primary actor and then the first matching vehicle.
type TrafficRule struct {
	Actor    []string      `yaml:"actor"`
	Vehicles []VehicleRule `yaml:"vehicles"`
}

// RuleSet is the full ordered table applied by a Canonicalizer.
type RuleSet struct {
	Rules     []Rule        `yaml:"rules"`
	Overrides []Override    `yaml:"overrides"`
	Traffic   []TrafficRule `yaml:"traffic"`
}

// DefaultRules returns the built-in substitution table in application order.
func DefaultRules() []Rule {
	return []Rule{
		// separators first so that no later pattern is split by them
		{"underscore", KindConnective, `_`, ""},
		{"whitespace", KindConnective, `\s`, ""},

		{"lone-bing", KindConnective, `(?<!合)併(?!發)`, ""},
		{"hebing", KindConnective, `合併(?!症)`, ""},
		{"bingfa", KindConnective, `併發(?!症)`, ""},

		{"no-evident-injury-cause", KindQualifier, `無明顯外傷性死因`, ""},
		{"no-injury-cause", KindQualifier, `無外傷性死因`, ""},
		{"no-evident-injury", KindQualifier, `無明顯外傷`, ""},
		{"not-covid", KindQualifier, `非新冠肺炎`, ""},

		{"unspecified", KindConnective, `未明`, ""},
		{"on-arrival", KindConnective, `到院`, ""},
		{"ji", KindConnective, `及`, ""},
		{"bing", KindConnective, `並`, ""},

		{"rheumatism", KindSpelling, `風溼`, "風濕"},
		{"eczema", KindSpelling, `濕疹`, "溼疹"},
		{"fall", KindSpelling, `墬落`, "墜落"},

		{"cardiovascular", KindPhrasing, `心血管疾患`, "心血管疾病"},
		{"pulmonary", KindPhrasing, `肺部疾患`, "肺部疾病"},
		{"cerebrovascular", KindPhrasing, `腦血管疾患`, "腦血管疾病"},
		{"end-stage-renal", KindPhrasing, `末期腎疾患`, "末期腎疾病"},

		{"dementia", KindPhrasing, `慢性老化性失智症`, "慢性失智症"},
		{"septic-shock", KindPhrasing, `敗血休克`, "敗血性休克"},
		{"congestive-heart-failure", KindPhrasing, `鬱血心衰竭`, "鬱血性心衰竭"},
		{"hypoxic-respiratory-failure", KindPhrasing, `急性缺氧呼吸衰竭`, "急性缺氧性呼吸衰竭"},
		{"sleep-apnea", KindPhrasing, `呼吸中止症(?!候群)`, "呼吸中止症候群"},
		{"immunodeficiency", KindPhrasing, `免疫低下`, "免疫力低下"},
		{"dlbcl", KindPhrasing, `瀰漫大B細胞淋巴瘤`, "瀰漫性大B細胞淋巴瘤"},

		{"wuhan-pneumonia", KindPhrasing, `武漢肺炎`, "新冠肺炎"},
		{"covid-confirmed", KindPhrasing, `嚴重特殊傳染性疾病確診`, "新冠肺炎"},
		{"breast-cancer", KindPhrasing, `乳腺惡性腫瘤`, "乳腺癌"},
		{"major-bleeding", KindPhrasing, `大+出血`, "出血"},

		{"covid-hyphen", KindSpelling, `COVID19`, "COVID-19"},
	}
}

// DefaultOverrides returns the built-in whole-phrase overrides.
func DefaultOverrides() []Override {
	return []Override{
		{From: "燒碳", To: "燒炭"},
		{From: "洗腎", To: "腎衰竭"},
	}
}

// DefaultTraffic returns the built-in traffic-incident table. Actors are
// tried in order and the first actor present decides the branch; when no
// vehicle of that branch matches the phrase is left untouched.
func DefaultTraffic() []TrafficRule {
	return []TrafficRule{
		{
			Actor: []string{"行人"},
			Vehicles: []VehicleRule{
				{Any: []string{"機車", "摩托車"}, Label: "車禍B1行人*機車"},
				{Any: []string{"小客車"}, Label: "車禍B2行人*汽車"},
				{Any: []string{"大貨車", "大客車"}, Label: "車禍B4行人*大貨車"},
				{Any: []string{"貨車"}, Label: "車禍B3行人*貨車"},
				{Any: []string{"火車"}, Label: "車禍B6行人*火車"},
			},
		},
		{
			Actor: []string{"機車騎士"},
			Vehicles: []VehicleRule{
				{Any: []string{"小客", "汽車"}, Label: "車禍D1機車騎士*汽車"},
				{Any: []string{"大貨車"}, Label: "車禍D3機車騎士*大貨車"},
				{Any: []string{"貨車"}, Label: "車禍D2機車騎士*貨車"},
				{Any: []string{"腳踏車"}, Label: "車禍D0機車騎士*腳踏車"},
				{Any: []string{"曳引車"}, Label: "車禍D3機車騎士*曳引車"},
				{Any: []string{"自行車"}, Label: "車禍D0機車騎士*腳踏車"},
			},
		},
		{
			Actor: []string{"機車"},
			Vehicles: []VehicleRule{
				{Any: []string{"小客", "汽車"}, Label: "車禍A21機車*汽車"},
				{Any: []string{"大貨車"}, Label: "車禍D3機車騎士*大貨車"},
				{Any: []string{"貨車"}, Label: "車禍A22機車*貨車"},
				{Any: []string{"機車"}, MinCount: 2, Label: "車禍A20機車"},
			},
		},
		{
			Actor: []string{"自行車", "腳踏車"},
			Vehicles: []VehicleRule{
				{Any: []string{"小客", "汽車"}, Label: "車禍C2腳踏車騎士*汽車"},
				{Any: []string{"機車", "摩托車"}, Label: "車禍C1腳踏車騎士*機車"},
				{Any: []string{"貨車"}, Label: "車禍C3腳踏車騎士*小貨車"},
			},
		},
	}
}

// DefaultRuleSet bundles the built-in tables.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Rules:     DefaultRules(),
		Overrides: DefaultOverrides(),
		Traffic:   DefaultTraffic(),
	}
}
