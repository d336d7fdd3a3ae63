package responseformat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	NormalDepth float64 `json:"normal_depth"`
	Regime      string  `json:"flow_regime"`
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter(true)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/problems", nil)

	if err := f.WriteResponse(rec, req, http.StatusCreated, payload{2.26, "subcritical"}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentJSON {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.NormalDepth != 2.26 || got.Regime != "subcritical" {
		t.Errorf("decoded %+v", got)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*http.Request)
		url   string
	}{
		{"query parameter", func(*http.Request) {}, "/x?format=msgpack"},
		{"accept header", func(r *http.Request) { r.Header.Set("Accept", ContentMsgPack) }, "/x"},
	}
	for _, tt := range tests {
		f := NewFormatter(false)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		tt.setup(req)

		if err := f.WriteResponse(rec, req, http.StatusOK, payload{1.5, "supercritical"}); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentMsgPack {
			t.Errorf("%s: content type = %q", tt.name, ct)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("%s: unexpected CORS header", tt.name)
		}
		var got map[string]any
		if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got["flow_regime"] != "supercritical" {
			t.Errorf("%s: json tag names not used: %v", tt.name, got)
		}
	}
}

func TestWriteError(t *testing.T) {
	f := NewFormatter(false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve/weir", nil)
	if err := f.WriteError(rec, req, http.StatusBadRequest, "ambiguous", errors.New("missing parameter")); err != nil {
		t.Fatal(err)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest || body.Kind != "ambiguous" || body.Error != "missing parameter" {
		t.Errorf("got %d %+v", rec.Code, body)
	}
}
