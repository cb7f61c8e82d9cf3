package node

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Invalid is a validation failure. Failures of child nodes are collected
// under the failing parent, so one error describes every problem in a
// cstruct.
type Invalid struct {
	Node     *Node
	Msg      string
	Value    any
	Pos      int // position of Node within its parent
	Children []*Invalid
}

func NewInvalid(n *Node, msg string, value any) *Invalid {
	return &Invalid{Node: n, Msg: msg, Value: value}
}

// Add attaches a child failure at position pos.
func (e *Invalid) Add(child *Invalid, pos int) {
	child.Pos = pos
	e.Children = append(e.Children, child)
}

// Adopt attaches err when it is an *Invalid and reports whether it did.
func (e *Invalid) Adopt(err error, pos int) bool {
	var child *Invalid
	if !errors.As(err, &child) {
		return false
	}
	e.Add(child, pos)
	return true
}

// Asdict flattens the failure tree into dotted paths, e.g.
// "addresses.0.street", mapped to messages. Paths start below the root.
func (e *Invalid) Asdict() map[string]string {
	out := make(map[string]string)
	e.collect(nil, out, true)
	return out
}

func (e *Invalid) collect(path []string, out map[string]string, root bool) {
	if e.Msg != "" {
		key := strings.Join(path, ".")
		if root && key == "" && e.Node != nil {
			key = e.Node.Name
		}
		if prev, ok := out[key]; ok {
			out[key] = prev + "; " + e.Msg
		} else {
			out[key] = e.Msg
		}
	}
	positional := e.Node != nil && e.Node.Typ != nil && e.Node.Typ.Kind() == KindSequence
	for _, child := range e.Children {
		part := strconv.Itoa(child.Pos)
		if !positional && child.Node != nil {
			part = child.Node.Name
		}
		child.collect(append(append([]string(nil), path...), part), out, false)
	}
}

func (e *Invalid) Error() string {
	flat := e.Asdict()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, flat[k])
			continue
		}
		parts = append(parts, k+": "+flat[k])
	}
	return "invalid: " + strings.Join(parts, "; ")
}
