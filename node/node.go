// Package node implements schema nodes: a tree of typed, named nodes that
// serialize application values (appstructs) to plain, JSON-compatible data
// (cstructs) and deserialize and validate plain data back.
//
// Three sentinels describe absent values:
//
//   - Null stands for "no value". Every type accepts it, unlike Go nil which
//     typed fields cannot hold.
//   - Drop, as a node's Missing, omits an absent key from the deserialized
//     result; as a Default it omits the key from the serialized result.
//   - Required, as a node's Missing, makes deserialization fail when the value
//     is absent.
package node

import (
	"fmt"
	"reflect"
)

type sentinel string

func (s sentinel) String() string { return string(s) }

const (
	Null     sentinel = "<null>"
	Drop     sentinel = "<drop>"
	Required sentinel = "<required>"
)

// IsNull reports whether v is Null, nil or a nil pointer.
func IsNull(v any) bool {
	if v == nil || v == Null {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Validator checks a deserialized value and returns an *Invalid on failure.
type Validator func(n *Node, value any) error

// Node is one element of a schema tree.
type Node struct {
	Name        string
	Typ         Type
	Missing     any // used by Deserialize when the value is absent
	Default     any // used by Serialize when the value is absent
	Validator   Validator
	Title       string
	Description string
	Children    []*Node
	Extra       map[string]any // options the node does not interpret (widget, preparer, ...)
}

// New returns a required node with a Null default.
func New(name string, typ Type, children ...*Node) *Node {
	return &Node{
		Name:     name,
		Typ:      typ,
		Missing:  Required,
		Default:  Null,
		Title:    Title(name),
		Children: children,
	}
}

// Required reports whether deserialization fails when the value is absent.
func (n *Node) Required() bool {
	return n.Missing == Required
}

// Add appends a child node.
func (n *Node) Add(child *Node) {
	n.Children = append(n.Children, child)
}

// Insert places child at index, clamped to the child list bounds.
func (n *Node) Insert(index int, child *Node) {
	if index < 0 {
		index = 0
	}
	if index >= len(n.Children) {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children[:index+1], n.Children[index:]...)
	n.Children[index] = child
}

// Child returns the child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Remove deletes the child called name and reports whether it existed.
func (n *Node) Remove(name string) bool {
	for i, c := range n.Children {
		if c.Name == name {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	if n.Extra != nil {
		c.Extra = make(map[string]any, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = v
		}
	}
	c.Missing = copyValue(n.Missing)
	c.Default = copyValue(n.Default)
	return &c
}

// Serialize converts an appstruct to a cstruct. An absent appstruct is
// replaced by the node's Default.
func (n *Node) Serialize(appstruct any) (any, error) {
	if IsNull(appstruct) {
		appstruct = resolve(n.Default)
	}
	if appstruct == Drop {
		return Drop, nil
	}
	return n.Typ.Serialize(n, appstruct)
}

// Deserialize converts a cstruct to an appstruct and validates it. An absent
// cstruct is replaced by the node's Missing value, which is not validated.
func (n *Node) Deserialize(cstruct any) (any, error) {
	appstruct, err := n.Typ.Deserialize(n, cstruct)
	if err != nil {
		return nil, err
	}

	if IsNull(appstruct) {
		missing := resolve(n.Missing)
		switch missing {
		case Required:
			return nil, NewInvalid(n, "Required", cstruct)
		case Drop:
			return Drop, nil
		}
		return copyValue(missing), nil
	}

	if n.Validator != nil {
		if err := n.Validator(n, appstruct); err != nil {
			return nil, err
		}
	}
	return appstruct, nil
}

func (n *Node) String() string {
	return fmt.Sprintf("<%s %q>", n.Typ.Kind(), n.Name)
}

// resolve evaluates deferred Missing/Default values.
func resolve(v any) any {
	if f, ok := v.(func() any); ok {
		return f()
	}
	return v
}

// copyValue copies container values so that callers never share a mutable
// Missing or Default with the node.
func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any{}, t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = item
		}
		return out
	}
	return v
}

// Title derives a display title from a node name: "first_name" becomes "First name".
func Title(name string) string {
	out := []rune(name)
	for i, r := range out {
		if r == '_' {
			out[i] = ' '
		}
	}
	if len(out) > 0 && out[0] >= 'a' && out[0] <= 'z' {
		out[0] -= 'a' - 'A'
	}
	return string(out)
}
