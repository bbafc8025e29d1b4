/*
Package server implements msgpack IPC for diagnosis normalization.

Clients send msgpack maps on stdin and read one msgpack map per request on
stdout. Messages are processed synchronously in arrival order, with timing
info included in normalize responses. Logs go to stderr.

# IPC

Every message carries an ID that is echoed back. The operation is picked by
the "action" field; without one a message holding "g" is a validation and
anything else a normalization.

Normalize a phrase into four slots:

	{"id": "n1", "p": "肺炎併發敗血症"}
	{"id": "n1", "t": ["肺炎", "敗血症", "", ""], "d": false, "us": 84}

Validate predicted slots against a reference:

	{"id": "v1", "p": ["糖尿病", "腎臟病"], "g": ["糖尿病腎臟病"]}
	{"id": "v1", "ok": true, "same": false, "up": [], "ut": []}

Show the rewrite steps of a phrase:

	{"id": "x1", "action": "explain", "p": "武漢肺炎"}

Dictionary and rule counters:

	{"id": "i1", "action": "info"}

Failures are reported as {"id": ..., "e": message, "c": code}.
*/
package server

// Actions understood by the server.
const (
	ActionNormalize = "normalize"
	ActionValidate  = "validate"
	ActionExplain   = "explain"
	ActionInfo      = "info"
)

// envelope is decoded first to route a message.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Target any    `msgpack:"g"`
}

// NormalizeRequest asks for the slots of one raw phrase.
type NormalizeRequest struct {
	ID     string `msgpack:"id"`
	Phrase string `msgpack:"p"`
}

// NormalizeResponse holds the four result slots.
type NormalizeResponse struct {
	ID        string   `msgpack:"id"`
	Terms     []string `msgpack:"t"`
	Dirty     bool     `msgpack:"d"`
	TimeTaken int64    `msgpack:"us"`
}

// ValidateRequest compares predicted slots with reference slots.
type ValidateRequest struct {
	ID        string   `msgpack:"id"`
	Predicted []string `msgpack:"p"`
	Target    []string `msgpack:"g"`
}

// ValidateResponse carries the verdicts and the entries left without a counterpart.
type ValidateResponse struct {
	ID                 string   `msgpack:"id"`
	OK                 bool     `msgpack:"ok"`
	Identical          bool     `msgpack:"same"`
	UnmatchedPredicted []string `msgpack:"up"`
	UnmatchedTarget    []string `msgpack:"ut"`
}

// ExplainRequest asks for the intermediate forms of a phrase.
type ExplainRequest struct {
	ID     string `msgpack:"id"`
	Phrase string `msgpack:"p"`
}

// ExplainStep is one rule that changed the text.
type ExplainStep struct {
	Rule   string `msgpack:"r"`
	Before string `msgpack:"b"`
	After  string `msgpack:"a"`
}

// ExplainResponse lists canonical text, applied rules, raw segments and cleaned terms.
type ExplainResponse struct {
	ID        string        `msgpack:"id"`
	Canonical string        `msgpack:"canon"`
	Steps     []ExplainStep `msgpack:"steps"`
	Segments  []string      `msgpack:"seg"`
	Terms     []string      `msgpack:"t"`
}

// Info describes what the server has loaded.
type Info struct {
	DictID       string `msgpack:"dict_id"`
	DictVersion  string `msgpack:"dict_version"`
	Terms        int    `msgpack:"terms"`
	Groups       int    `msgpack:"groups"`
	Rules        int    `msgpack:"rules"`
	Experimental bool   `msgpack:"experimental"`
}

// InfoResponse answers an info action.
type InfoResponse struct {
	ID       string `msgpack:"id"`
	Status   string `msgpack:"status"`
	Info     Info   `msgpack:"info"`
	Requests int    `msgpack:"requests"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
