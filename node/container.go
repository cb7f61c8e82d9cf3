package node

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// UnknownPolicy decides what a Mapping does with keys that have no child node.
type UnknownPolicy string

const (
	Ignore   UnknownPolicy = "ignore"
	Raise    UnknownPolicy = "raise"
	Preserve UnknownPolicy = "preserve"
)

// ParseUnknown parses an unknown-key policy name.
func ParseUnknown(s string) (UnknownPolicy, error) {
	switch p := UnknownPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case Ignore, Raise, Preserve:
		return p, nil
	case "":
		return Ignore, nil
	}
	return "", fmt.Errorf("unknown policy must be one of ignore, raise or preserve, got '%s'", s)
}

// Mapping holds named children. Its appstruct and cstruct are both
// map[string]any.
type Mapping struct {
	Unknown UnknownPolicy
}

// Sequence holds any number of values described by its single child node.
// Its appstruct and cstruct are both []any.
type Sequence struct{}

func (Mapping) Kind() Kind  { return KindMapping }
func (Sequence) Kind() Kind { return KindSequence }

func (m Mapping) Serialize(n *Node, appstruct any) (any, error) {
	return m.walk(n, appstruct, (*Node).Serialize)
}

func (m Mapping) Deserialize(n *Node, cstruct any) (any, error) {
	return m.walk(n, cstruct, (*Node).Deserialize)
}

func (m Mapping) walk(n *Node, value any, convert func(*Node, any) (any, error)) (any, error) {
	if IsNull(value) {
		return Null, nil
	}
	in, ok := AsMap(value)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not a mapping type", value), value)
	}

	out := make(map[string]any, len(n.Children))
	inv := NewInvalid(n, "", value)

	for i, child := range n.Children {
		sub, present := in[child.Name]
		if !present {
			sub = Null
		}
		result, err := convert(child, sub)
		if err != nil {
			if !inv.Adopt(err, i) {
				return nil, err
			}
			continue
		}
		if result != Drop {
			out[child.Name] = result
		}
	}

	if extra := m.unknownKeys(n, in); len(extra) > 0 {
		switch m.Unknown {
		case Raise:
			inv.Msg = fmt.Sprintf("Unrecognized keys in mapping: %s", strings.Join(extra, ", "))
		case Preserve:
			for _, k := range extra {
				out[k] = in[k]
			}
		}
	}

	if inv.Msg != "" || len(inv.Children) > 0 {
		return nil, inv
	}
	return out, nil
}

func (m Mapping) unknownKeys(n *Node, in map[string]any) []string {
	var extra []string
	for k := range in {
		if n.Child(k) == nil {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func (s Sequence) Serialize(n *Node, appstruct any) (any, error) {
	return s.walk(n, appstruct, (*Node).Serialize)
}

func (s Sequence) Deserialize(n *Node, cstruct any) (any, error) {
	return s.walk(n, cstruct, (*Node).Deserialize)
}

func (Sequence) walk(n *Node, value any, convert func(*Node, any) (any, error)) (any, error) {
	if IsNull(value) {
		return Null, nil
	}
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("sequence node '%s' needs exactly one child, has %d", n.Name, len(n.Children))
	}
	items, ok := AsSlice(value)
	if !ok {
		return nil, NewInvalid(n, fmt.Sprintf("\"%v\" is not iterable", value), value)
	}

	template := n.Children[0]
	out := make([]any, 0, len(items))
	inv := NewInvalid(n, "", value)

	for i, item := range items {
		result, err := convert(template, item)
		if err != nil {
			if !inv.Adopt(err, i) {
				return nil, err
			}
			continue
		}
		if result != Drop {
			out = append(out, result)
		}
	}

	if len(inv.Children) > 0 {
		return nil, inv
	}
	return out, nil
}

// AsMap converts any map with string keys to map[string]any.
func AsMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsSlice converts any slice or array to []any.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
