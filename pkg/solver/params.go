package solver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// Params is the flat parameter map of a problem. Values may be numbers,
// numeric strings, booleans, lists (for slopes) or nested maps (for the
// sub-sections of compound and transition problems).
type Params map[string]any

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Float returns the numeric value under key. ok is false when the key is
// absent; a present but non-numeric value is an error.
func (p Params) Float(key string) (v float64, ok bool, err error) {
	raw, present := p[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, err = toFloat(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%w: parameter %q: %v", channel.ErrDomain, key, err)
	}
	return v, true, nil
}

// FloatAny returns the first of keys that is present.
func (p Params) FloatAny(keys ...string) (v float64, key string, ok bool, err error) {
	for _, k := range keys {
		v, ok, err = p.Float(k)
		if ok || err != nil {
			return v, k, ok, err
		}
	}
	return 0, "", false, nil
}

// Require returns the numeric value under the first present key, or an
// ErrAmbiguousSpec naming the missing parameter.
func (p Params) Require(keys ...string) (float64, error) {
	v, _, ok, err := p.FloatAny(keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: missing parameter %q", channel.ErrAmbiguousSpec, keys[0])
	}
	return v, nil
}

// Floats returns a list under key. A single number is a one-element list.
func (p Params) Floats(key string) ([]float64, bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	var items []any
	switch t := raw.(type) {
	case []any:
		items = t
	case []float64:
		return append([]float64(nil), t...), true, nil
	case string:
		if strings.Contains(t, ",") {
			for _, s := range strings.Split(t, ",") {
				items = append(items, strings.TrimSpace(s))
			}
		} else {
			items = []any{t}
		}
	default:
		items = []any{t}
	}
	out := make([]float64, 0, len(items))
	for i, it := range items {
		v, err := toFloat(it)
		if err != nil {
			return nil, true, fmt.Errorf("%w: parameter %q[%d]: %v", channel.ErrDomain, key, i, err)
		}
		out = append(out, v)
	}
	return out, true, nil
}

// String returns the string value under key.
func (p Params) String(key string) (string, bool) {
	raw, present := p[key]
	if !present || raw == nil {
		return "", false
	}
	switch t := raw.(type) {
	case string:
		return strings.TrimSpace(t), true
	case fmt.Stringer:
		return t.String(), true
	}
	return fmt.Sprint(raw), true
}

// Bool returns the boolean under key, or def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return def, nil
	}
	switch t := raw.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def, fmt.Errorf("%w: parameter %q: %v", channel.ErrDomain, key, err)
		}
		return b, nil
	}
	v, err := toFloat(raw)
	if err != nil {
		return def, fmt.Errorf("%w: parameter %q is not a boolean", channel.ErrDomain, key)
	}
	return v != 0, nil
}

// Sub returns the parameters of a nested section, taken either from a map
// under prefix or from keys of the form "prefix.name".
func (p Params) Sub(prefix string) Params {
	out := Params{}
	switch nested := p[prefix].(type) {
	case map[string]any:
		for k, v := range nested {
			out[k] = v
		}
	case Params:
		for k, v := range nested {
			out[k] = v
		}
	}
	dotted := prefix + "."
	for k, v := range p {
		if strings.HasPrefix(k, dotted) {
			out[strings.TrimPrefix(k, dotted)] = v
		}
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toFloat(raw any) (float64, error) {
	switch t := raw.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("%v (%T) is not a number", raw, raw)
}

// ParseSection builds a cross-section from "shape" and its shape-specific
// parameters. Compound sections read "break_depth" and the nested "bottom"
// and optional "top" sections.
func ParseSection(p Params) (channel.Section, error) {
	name, ok := p.String("shape")
	if !ok || name == "" {
		name, ok = p.String("channel_type")
	}
	if !ok || name == "" {
		return channel.Section{}, fmt.Errorf("%w: missing parameter \"shape\"", channel.ErrAmbiguousSpec)
	}
	shape, err := channel.ParseShape(name)
	if err != nil {
		return channel.Section{}, err
	}

	switch shape {
	case channel.Rectangular:
		w, err := p.Require("width")
		if err != nil {
			return channel.Section{}, err
		}
		return channel.NewRectangular(w)

	case channel.Trapezoidal:
		b, err := p.Require("bottom_width", "width")
		if err != nil {
			return channel.Section{}, err
		}
		m, err := p.Require("side_slope")
		if err != nil {
			return channel.Section{}, err
		}
		return channel.NewTrapezoidal(b, m)

	case channel.Circular:
		d, err := p.Require("diameter")
		if err != nil {
			return channel.Section{}, err
		}
		return channel.NewCircular(d)

	case channel.Triangular:
		m, hasSlope, err := p.Float("side_slope")
		if err != nil {
			return channel.Section{}, err
		}
		angle, hasAngle, err := p.Float("semi_angle")
		if err != nil {
			return channel.Section{}, err
		}
		switch {
		case hasSlope && hasAngle:
			return channel.Section{}, fmt.Errorf("%w: give either side_slope or semi_angle for a triangular section", channel.ErrAmbiguousSpec)
		case hasSlope:
			return channel.NewTriangular(m)
		case hasAngle:
			return channel.NewTriangularFromAngle(angle)
		}
		return channel.Section{}, fmt.Errorf("%w: missing parameter \"side_slope\" or \"semi_angle\"", channel.ErrAmbiguousSpec)

	case channel.Wide:
		return channel.NewWide(), nil

	case channel.Compound:
		brk, err := p.Require("break_depth")
		if err != nil {
			return channel.Section{}, err
		}
		bottom, err := ParseSection(p.Sub("bottom"))
		if err != nil {
			return channel.Section{}, fmt.Errorf("bottom section: %w", err)
		}
		var top *channel.Section
		if sub := p.Sub("top"); len(sub) > 0 {
			t, err := ParseSection(sub)
			if err != nil {
				return channel.Section{}, fmt.Errorf("top section: %w", err)
			}
			top = &t
		}
		return channel.NewCompound(bottom, brk, top)
	}
	return channel.Section{}, fmt.Errorf("%w: %s", channel.ErrUnsupportedShape, shape)
}

// ParseResistance reads Manning's n ("n" or "manning_n") or Chezy's C ("C"
// or "chezy_c"). Exactly one must be given.
func ParseResistance(p Params) (flow.Resistance, error) {
	n, _, hasN, err := p.FloatAny("n", "manning_n")
	if err != nil {
		return flow.Resistance{}, err
	}
	c, _, hasC, err := p.FloatAny("C", "c", "chezy_c")
	if err != nil {
		return flow.Resistance{}, err
	}
	var np, cp *float64
	if hasN {
		np = &n
	}
	if hasC {
		cp = &c
	}
	return flow.ResistanceFrom(np, cp)
}
