package solver

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
)

// Field is one named output. Exactly one of Value and Err is set.
type Field struct {
	Name  string
	Value any
	Err   error
}

// OK reports whether the field was computed.
func (f Field) OK() bool { return f.Err == nil }

// Result holds every output of a problem in the order it was computed.
// Each field succeeds or fails on its own.
type Result struct {
	Problem ProblemType
	Fields  []Field
}

func (r *Result) set(name string, v any) {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		r.fail(name, fmt.Errorf("%w: %s is not finite", channel.ErrDomain, name))
		return
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: v})
}

func (r *Result) fail(name string, err error) {
	r.Fields = append(r.Fields, Field{Name: name, Err: err})
}

// record stores v under name, or the error if err is non-nil.
func (r *Result) record(name string, v any, err error) bool {
	if err != nil {
		r.fail(name, err)
		return false
	}
	r.set(name, v)
	return r.Fields[len(r.Fields)-1].OK()
}

// Get returns the field called name.
func (r Result) Get(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Float returns the value of a successful numeric field.
func (r Result) Float(name string) (float64, bool) {
	f, ok := r.Get(name)
	if !ok || !f.OK() {
		return 0, false
	}
	v, ok := f.Value.(float64)
	return v, ok
}

// Values maps every field name to its value, with nil for failed fields.
func (r Result) Values() map[string]any {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		if f.OK() {
			out[f.Name] = f.Value
		} else {
			out[f.Name] = nil
		}
	}
	return out
}

// Errors maps each failed field name to its error message.
func (r Result) Errors() map[string]string {
	out := map[string]string{}
	for _, f := range r.Fields {
		if !f.OK() {
			out[f.Name] = f.Err.Error()
		}
	}
	return out
}

// Failed counts the failed fields.
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Fields {
		if !f.OK() {
			n++
		}
	}
	return n
}

type resultJSON struct {
	Problem ProblemType       `json:"problem" msgpack:"problem"`
	Results map[string]any    `json:"results" msgpack:"results"`
	Errors  map[string]string `json:"errors,omitempty" msgpack:"errors,omitempty"`
}

// Wire returns the serialisable form {"problem", "results", "errors"}.
func (r Result) Wire() any {
	return resultJSON{Problem: r.Problem, Results: r.Values(), Errors: r.Errors()}
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}
