package cmd

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"

	"github.com/ridoystarlord/ormschema/node"
)

// NodeDescription is the JSON rendering of a schema node.
type NodeDescription struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Required    bool              `json:"required"`
	Missing     string            `json:"missing,omitempty"`
	Default     string            `json:"default,omitempty"`
	Unknown     string            `json:"unknown,omitempty"`
	Children    []NodeDescription `json:"children,omitempty"`
}

// Describe renders n and its children.
func Describe(n *node.Node) NodeDescription {
	d := NodeDescription{
		Name:        n.Name,
		Type:        n.Typ.Kind().String(),
		Title:       n.Title,
		Description: n.Description,
		Required:    n.Required(),
	}
	if !n.Required() {
		d.Missing = describeValue(n.Missing)
	}
	if n.Default != node.Null {
		d.Default = describeValue(n.Default)
	}
	if m, ok := n.Typ.(node.Mapping); ok {
		d.Unknown = string(m.Unknown)
	}
	for _, child := range n.Children {
		d.Children = append(d.Children, Describe(child))
	}
	return d
}

func describeValue(v any) string {
	if v == nil {
		return "nil"
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "<callable>"
	}
	return fmt.Sprint(v)
}

// printTree writes an indented, colored outline of d.
func printTree(w io.Writer, d NodeDescription, depth int) {
	indent := strings.Repeat("  ", depth)
	name := d.Name
	if name == "" {
		name = "(root)"
	}

	marker := color.GreenString("required")
	if !d.Required {
		marker = color.YellowString("missing=%s", d.Missing)
	}
	line := fmt.Sprintf("%s• %s %s [%s]", indent, color.CyanString(name), d.Type, marker)
	if d.Default != "" {
		line += fmt.Sprintf(" default=%s", d.Default)
	}
	if d.Unknown != "" && d.Unknown != string(node.Ignore) {
		line += fmt.Sprintf(" unknown=%s", d.Unknown)
	}
	fmt.Fprintln(w, line)

	for _, child := range d.Children {
		printTree(w, child, depth+1)
	}
}

// dumpNode writes the raw node tree, skipping function pointers.
func dumpNode(w io.Writer, n *node.Node) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		DisableMethods:          true,
		SortKeys:                true,
	}
	cfg.Fdump(w, n)
}
