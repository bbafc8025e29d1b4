package server

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/bastiangx/icdnorm/pkg/canon"
	"github.com/bastiangx/icdnorm/pkg/dictionary"
	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/bastiangx/icdnorm/pkg/refine"
	"github.com/bastiangx/icdnorm/pkg/segment"
	"github.com/bastiangx/icdnorm/pkg/validate"
	"github.com/vmihailenco/msgpack/v5"
)

func testServer(t *testing.T, in *bytes.Buffer, out *bytes.Buffer) *Server {
	t.Helper()
	d, err := dictionary.Build(dictionary.Sources{
		Terms: []string{"肺炎", "敗血症", "糖尿病", "腎臟病", "糖尿病腎臟病"},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := canon.Default()
	p := pipeline.New(c, segment.New(d), refine.New(d), validate.New(d))
	info := Info{DictID: "test", Terms: d.Len(), Rules: c.Len()}
	return NewServerWithIO(p, info, in, out)
}

func encode(t *testing.T, buf *bytes.Buffer, msgs ...any) {
	t.Helper()
	for _, m := range msgs {
		data, err := msgpack.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(data)
	}
}

func TestServerRequests(t *testing.T) {
	var in, out bytes.Buffer
	encode(t, &in,
		NormalizeRequest{ID: "n1", Phrase: "肺炎併發敗血症"},
		ValidateRequest{ID: "v1", Predicted: []string{"糖尿病", "腎臟病", "", ""}, Target: []string{"糖尿病腎臟病"}},
		map[string]any{"id": "x1", "action": "explain", "p": "肺炎併發敗血症"},
		NormalizeRequest{ID: "n2", Phrase: "肺?"},
		map[string]any{"id": "i1", "action": "info"},
	)
	if err := testServer(t, &in, &out).Start(); err != nil {
		t.Fatal(err)
	}
	dec := msgpack.NewDecoder(&out)

	var n1 NormalizeResponse
	if err := dec.Decode(&n1); err != nil {
		t.Fatal(err)
	}
	if n1.ID != "n1" || !reflect.DeepEqual(n1.Terms, []string{"肺炎", "敗血症", "", ""}) || n1.Dirty {
		t.Errorf("normalize = %+v", n1)
	}

	var v1 ValidateResponse
	if err := dec.Decode(&v1); err != nil {
		t.Fatal(err)
	}
	if v1.ID != "v1" || !v1.OK || v1.Identical || len(v1.UnmatchedPredicted) != 0 || len(v1.UnmatchedTarget) != 0 {
		t.Errorf("validate = %+v", v1)
	}

	var x1 ExplainResponse
	if err := dec.Decode(&x1); err != nil {
		t.Fatal(err)
	}
	if x1.Canonical != "肺炎敗血症" || len(x1.Steps) != 1 || x1.Steps[0].Rule != "bingfa" {
		t.Errorf("explain = %+v", x1)
	}

	var n2 NormalizeResponse
	if err := dec.Decode(&n2); err != nil {
		t.Fatal(err)
	}
	if !n2.Dirty || !reflect.DeepEqual(n2.Terms, []string{"", "", "", ""}) {
		t.Errorf("dirty normalize = %+v", n2)
	}

	var i1 InfoResponse
	if err := dec.Decode(&i1); err != nil {
		t.Fatal(err)
	}
	if i1.Status != "ok" || i1.Info.DictID != "test" || i1.Info.Terms != 5 || i1.Requests != 5 {
		t.Errorf("info = %+v", i1)
	}
}

func TestServerErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  any
		code int
	}{
		{"unknown action", map[string]any{"id": "a", "action": "shrink"}, 400},
		{"wrong field type", map[string]any{"id": "b", "p": []string{"肺炎"}}, 400},
		{"not a map", "肺炎", 400},
		{"phrase too long", NormalizeRequest{ID: "c", Phrase: string(make([]byte, maxPhraseLen+1))}, 413},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in, out bytes.Buffer
			encode(t, &in, tt.msg)
			if err := testServer(t, &in, &out).Start(); err != nil {
				t.Fatal(err)
			}
			var resp ErrorResponse
			if err := msgpack.NewDecoder(&out).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code || resp.Error == "" {
				t.Errorf("response = %+v, want code %d", resp, tt.code)
			}
		})
	}
}

func TestServerMalformedStream(t *testing.T) {
	var in, out bytes.Buffer
	in.WriteByte(0xc1)
	if err := testServer(t, &in, &out).Start(); err == nil {
		t.Fatal("expected error for malformed stream")
	}
	var resp ErrorResponse
	if err := msgpack.NewDecoder(&out).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != 400 {
		t.Errorf("code = %d, want 400", resp.Code)
	}
}

func TestServerEmptyInput(t *testing.T) {
	var in, out bytes.Buffer
	if err := testServer(t, &in, &out).Start(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %x", out.Bytes())
	}
}
