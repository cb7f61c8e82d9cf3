package builder

import (
	"fmt"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

// applyArgs sets node arguments from a merged config. Keys the node does not
// interpret (widget, preparer, ...) are kept in Extra.
func applyArgs(n *node.Node, args schema.Config) error {
	for _, key := range args.Keys() {
		v := args[key]
		switch key {
		case "name":
			name, ok := v.(string)
			if !ok {
				return fmt.Errorf("name must be a string, got %T", v)
			}
			n.Name = name
			if n.Title == "" {
				n.Title = node.Title(name)
			}
		case "title":
			n.Title = fmt.Sprint(v)
		case "description":
			n.Description = fmt.Sprint(v)
		case "missing":
			n.Missing = v
		case "default":
			n.Default = v
		case "validator":
			validator, err := asValidator(v)
			if err != nil {
				return err
			}
			n.Validator = validator
		case "typ":
			typ, err := asType(v)
			if err != nil {
				return err
			}
			n.Typ = typ
		default:
			if n.Extra == nil {
				n.Extra = make(map[string]any)
			}
			n.Extra[key] = v
		}
	}
	return nil
}

// asType accepts a node.Type or a constructor of one.
func asType(v any) (node.Type, error) {
	switch t := v.(type) {
	case node.Type:
		return t, nil
	case func() node.Type:
		return t(), nil
	}
	return nil, fmt.Errorf("typ must be a node type, got %T", v)
}

func asValidator(v any) (node.Validator, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case node.Validator:
		return f, nil
	case func(*node.Node, any) error:
		return f, nil
	case []node.Validator:
		return node.All(f...), nil
	}
	return nil, fmt.Errorf("validator must be a node.Validator, got %T", v)
}

// asNodes reads a children override.
func asNodes(v any) ([]*node.Node, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case []*node.Node:
		return c, nil
	case []any:
		out := make([]*node.Node, 0, len(c))
		for _, item := range c {
			n, ok := item.(*node.Node)
			if !ok {
				return nil, fmt.Errorf("children must be nodes, got %T", item)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("children must be a list of nodes, got %T", v)
}
