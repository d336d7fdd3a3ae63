package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/openchannel/pkg/solver"
)

func TestReadRequestsFromFlags(t *testing.T) {
	reqs, err := readRequests(options{problem: "basic_flow", params: `{"shape": "rectangular", "width": 5}`})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 || reqs[0].Problem != solver.BasicFlow || reqs[0].Params["width"] != 5.0 {
		t.Errorf("reqs = %+v", reqs)
	}

	if _, err := readRequests(options{problem: "basic_flow", params: "[1, 2]"}); err == nil {
		t.Error("expected an error for non-object params")
	}
}

func TestReadRequestsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.yaml")
	data := `
- problem: basic_flow
  params:
    shape: rectangular
    width: 5
    discharge: 20
    slope: [0.001, 0.01]
    n: 0.02
- problem: transition
  params:
    shape: rectangular
    width: 5
    discharge: 20
    approach_depth: 2.5
    transition:
      width: 3
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	reqs, err := readRequests(options{file: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 || reqs[1].Problem != solver.Transition {
		t.Fatalf("reqs = %+v", reqs)
	}
	if w, ok, err := reqs[1].Params.Sub("transition").Float("width"); err != nil || !ok || w != 3 {
		t.Errorf("transition width = %v %v %v", w, ok, err)
	}
}

func TestReadRequestsNeedsOneSource(t *testing.T) {
	for _, o := range []options{{}, {problem: "basic_flow", file: "x.yaml"}, {file: "a.yaml", xlsx: "b.xlsx"}} {
		if _, err := readRequests(o); err == nil {
			t.Errorf("readRequests(%+v) succeeded", o)
		}
	}
}
